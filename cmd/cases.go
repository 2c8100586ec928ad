package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/medpilot/medpilot/internal/cases"
	"github.com/medpilot/medpilot/internal/workflow"
)

var (
	casesRole      string
	similarLimit   int
	validateReject bool
)

var casesCmd = &cobra.Command{
	Use:   "cases",
	Short: "Query stored diagnostic cases",
}

var similarCmd = &cobra.Command{
	Use:   "similar <symptom> [symptom...]",
	Short: "Find stored cases sharing symptoms with the query",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		p := mustPipeline()
		defer p.close()

		similar, err := p.queries.FindSimilarCases(cmd.Context(), args, cases.ParseRole(casesRole), similarLimit)
		exitOnError(err)

		if len(similar) == 0 {
			fmt.Println("No similar cases found.")
			return
		}
		for _, s := range similar {
			names := make([]string, 0, len(s.Diagnoses))
			for _, d := range s.Diagnoses {
				names = append(names, d.Name)
			}
			fmt.Printf("%s  %d matching symptom(s)  [%s]  %s\n",
				s.ID, s.MatchingSymptoms, strings.Join(names, ", "), s.RiskLevel)
		}
	},
}

var comorbiditiesCmd = &cobra.Command{
	Use:   "comorbidities <diagnosis>",
	Short: "List conditions co-occurring with a diagnosis",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		p := mustPipeline()
		defer p.close()

		comorbidities, err := p.queries.FindComorbidities(cmd.Context(), args[0], cases.ParseRole(casesRole))
		exitOnError(err)

		if len(comorbidities) == 0 {
			fmt.Printf("No recorded comorbidities for %q.\n", args[0])
			return
		}
		for _, c := range comorbidities {
			fmt.Printf("%-30s %d co-occurrence(s)\n", c.Name, c.CoOccurrence)
		}
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate case statistics (doctor role required)",
	Run: func(cmd *cobra.Command, args []string) {
		p := mustPipeline()
		defer p.close()

		stats, err := p.queries.CaseStatistics(cmd.Context(), cases.ParseRole(casesRole))
		if errors.Is(err, workflow.ErrUnauthorized) {
			exitOnError(fmt.Errorf("unauthorized: statistics are restricted to the doctor role"))
		}
		exitOnError(err)

		fmt.Printf("Total cases:          %d\n", stats.TotalCases)
		fmt.Printf("Total symptoms:       %d\n", stats.TotalSymptoms)
		fmt.Printf("Total diagnoses:      %d\n", stats.TotalDiagnoses)
		fmt.Printf("Cases with diagnosis: %d\n", stats.CasesWithDiagnosis)
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate <case-id>",
	Short: "Record a clinician's sign-off on a stored case",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		p := mustPipeline()
		defer p.close()

		err := p.queries.ValidateCase(cmd.Context(), args[0], cases.ParseRole(casesRole), !validateReject)
		if errors.Is(err, workflow.ErrUnauthorized) {
			exitOnError(fmt.Errorf("unauthorized: only doctors may validate cases"))
		}
		exitOnError(err)

		if validateReject {
			fmt.Printf("Case %s marked as rejected.\n", args[0])
		} else {
			fmt.Printf("Case %s marked as validated.\n", args[0])
		}
	},
}

func mustPipeline() *pipeline {
	cfg, err := loadConfig()
	exitOnError(err)
	p, err := buildPipeline(cfg)
	exitOnError(err)
	return p
}

func init() {
	casesCmd.PersistentFlags().StringVar(&casesRole, "role", "patient", "caller role (doctor, nurse, patient, researcher)")
	similarCmd.Flags().IntVar(&similarLimit, "limit", 5, "maximum number of cases to return")
	validateCmd.Flags().BoolVar(&validateReject, "reject", false, "mark the case as rejected instead of validated")

	casesCmd.AddCommand(similarCmd, comorbiditiesCmd, statsCmd, validateCmd)
	rootCmd.AddCommand(casesCmd)
}
