package cmd

import (
	"github.com/spf13/cobra"

	"github.com/medpilot/medpilot/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the diagnostic tools over MCP on stdio",
	Long: `Starts an MCP server exposing the diagnose, find_similar_cases,
find_comorbidities, and case_statistics tools. Stdout carries protocol
messages, so all logging goes to stderr.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		exitOnError(err)

		p, err := buildPipeline(cfg)
		exitOnError(err)
		defer p.close()

		exitOnError(mcp.NewServer(p.deps, p.cfg, p.queries).Serve())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
