package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/medpilot/medpilot/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a medpilot config file interactively",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.RunWizard()
		exitOnError(err)

		exitOnError(cfg.Save(cfgFile))
		fmt.Printf("Config written to %s\n", cfgFile)
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
