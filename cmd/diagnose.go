package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/medpilot/medpilot/internal/cases"
	"github.com/medpilot/medpilot/internal/progress"
	"github.com/medpilot/medpilot/internal/workflow"
)

var (
	diagnoseRole      string
	diagnoseValidated bool
	diagnoseJSON      bool
)

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose <description>",
	Short: "Run the diagnostic pipeline on a symptom description",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		exitOnError(err)

		p, err := buildPipeline(cfg)
		exitOnError(err)
		defer p.close()

		deps := p.deps
		var bar *progress.Terminal
		if !diagnoseJSON {
			bar = progress.NewTerminal()
			deps.Reporter = bar
		}

		req := workflow.Request{
			PatientInput: strings.Join(args, " "),
			UserRole:     cases.ParseRole(diagnoseRole),
		}
		if cmd.Flags().Changed("validated") {
			req.ValidationStatus = &diagnoseValidated
		}

		state, err := workflow.New(deps, p.cfg).Run(cmd.Context(), req)
		if bar != nil {
			bar.Finish()
		}
		if err != nil {
			var perr *workflow.PipelineError
			if errors.As(err, &perr) {
				exitOnError(fmt.Errorf("stage %s failed: %v", perr.Stage, perr.Err))
			}
			exitOnError(err)
		}

		if diagnoseJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			exitOnError(enc.Encode(state))
			return
		}

		printState(state)
	},
}

func printState(state *workflow.CaseState) {
	fmt.Printf("Symptoms:      %s\n", strings.Join(state.Symptoms, ", "))
	fmt.Printf("Risk level:    %s\n", state.RiskAssessment.Level)

	fmt.Println("Differential:")
	for _, d := range state.JudgeEvaluation.Diagnoses {
		fmt.Printf("  - %s (%.0f%%)\n", d.Name, d.Confidence*100)
	}
	fmt.Printf("Confidence:    %.2f\n", state.JudgeEvaluation.Confidence)

	if state.PIIDetected {
		fmt.Println("Note: personal identifiers were redacted from the input.")
	}
	if state.SensitiveContentDetected {
		fmt.Println("Note: sensitive content detected.")
	}

	switch {
	case state.Persisted:
		fmt.Printf("Case saved:    %s\n", state.CaseID)
	case state.RequiresValidation:
		fmt.Println("Case held:     clinician validation required before saving.")
	case state.StoreError != "":
		fmt.Printf("Case not saved: %s\n", state.StoreError)
	}

	fmt.Printf("\n%s\n", state.FinalRecommendation)
}

func init() {
	diagnoseCmd.Flags().StringVar(&diagnoseRole, "role", "patient", "caller role (doctor, nurse, patient, researcher)")
	diagnoseCmd.Flags().BoolVar(&diagnoseValidated, "validated", false, "mark the case as clinician-approved (resubmission after review)")
	diagnoseCmd.Flags().BoolVar(&diagnoseJSON, "json", false, "print the full case state as JSON")
	rootCmd.AddCommand(diagnoseCmd)
}
