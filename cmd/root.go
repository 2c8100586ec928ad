package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "medpilot",
	Short: "AI-assisted diagnostic pipeline with safety gating and case storage",
	Long: `MedPilot routes a free-text medical description through a fixed
sequence of reasoning stages (symptom extraction, context retrieval,
risk evaluation, diagnosis, alternatives, judged review, fact check),
gated by PII redaction, sensitive-content detection, and role-based
access control. Finalized cases are stored for similarity and
comorbidity queries.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".medpilot.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
