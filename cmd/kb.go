package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/medpilot/medpilot/internal/knowledge"
)

var (
	kbIncludes []string
	kbExcludes []string
	kbLimit    int
)

var kbCmd = &cobra.Command{
	Use:   "kb",
	Short: "Manage the medical knowledge base",
}

var kbImportCmd = &cobra.Command{
	Use:   "import <dir>",
	Short: "Import reference documents into the knowledge base",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		exitOnError(err)

		base, err := openKnowledgeBase(cfg)
		exitOnError(err)

		n, err := knowledge.ImportDir(cmd.Context(), base, args[0], kbIncludes, kbExcludes)
		exitOnError(err)

		exitOnError(base.Persist(cfg.DataDir))
		fmt.Printf("Imported %d snippets (%d total in base).\n", n, base.Count())
	},
}

var kbSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the knowledge base",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		exitOnError(err)

		base, err := openKnowledgeBase(cfg)
		exitOnError(err)

		results, err := base.Search(cmd.Context(), strings.Join(args, " "), kbLimit)
		exitOnError(err)

		if len(results) == 0 {
			fmt.Println("No matching snippets. Run `medpilot kb import` first.")
			return
		}
		for _, r := range results {
			fmt.Printf("%.3f  %s\n%s\n\n", r.Similarity, r.Source, r.Content)
		}
	},
}

func init() {
	kbImportCmd.Flags().StringSliceVar(&kbIncludes, "include", nil, "glob patterns to include (default **/*.md, **/*.txt)")
	kbImportCmd.Flags().StringSliceVar(&kbExcludes, "exclude", nil, "glob patterns to exclude")
	kbSearchCmd.Flags().IntVar(&kbLimit, "limit", 3, "maximum number of snippets to return")

	kbCmd.AddCommand(kbImportCmd, kbSearchCmd)
	rootCmd.AddCommand(kbCmd)
}
