package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/medpilot/medpilot/internal/server"
)

var (
	servePort     int
	serveAllowAll bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the diagnostic API over HTTP",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		exitOnError(err)

		if !cmd.Flags().Changed("port") {
			servePort = cfg.Server.Port
		}
		if !cmd.Flags().Changed("allow-all") {
			serveAllowAll = cfg.Server.AllowAll
		}

		p, err := buildPipeline(cfg)
		exitOnError(err)
		defer p.close()

		srv := server.New(p.deps, p.cfg, p.queries, p.audit, server.Options{
			Port:            servePort,
			AllowAllOrigins: serveAllowAll,
		})

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		exitOnError(srv.Start(ctx))
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8750, "port to listen on")
	serveCmd.Flags().BoolVar(&serveAllowAll, "allow-all", false, "allow requests from any origin")
	rootCmd.AddCommand(serveCmd)
}
