// Package progress renders pipeline stage progress for the CLI.
package progress

import (
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"

	"github.com/medpilot/medpilot/internal/workflow"
)

var stageLabels = map[workflow.Stage]string{
	workflow.StageGating:             "Safety gating",
	workflow.StageExtract:            "Extracting symptoms",
	workflow.StageContext:            "Retrieving medical context",
	workflow.StageRisk:               "Evaluating risk",
	workflow.StageDiagnose:           "Generating diagnosis",
	workflow.StageAlternatives:       "Considering alternatives",
	workflow.StageJudge:              "Reviewing differential",
	workflow.StageFactCheck:          "Fact checking",
	workflow.StageValidationDecision: "Deciding on validation",
	workflow.StagePersist:            "Saving case",
	workflow.StageSkipPersist:        "Holding for validation",
	workflow.StageRecommend:          "Writing recommendation",
}

// Label returns a human-readable name for a stage.
func Label(stage workflow.Stage) string {
	if l, ok := stageLabels[stage]; ok {
		return l
	}
	return string(stage)
}

// Terminal renders an interactive progress bar.
type Terminal struct {
	bar *progressbar.ProgressBar
}

func NewTerminal() *Terminal {
	return &Terminal{}
}

func (t *Terminal) StageStarted(stage workflow.Stage, index, total int) {
	if t.bar == nil {
		t.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetWidth(24),
			progressbar.OptionShowCount(),
			progressbar.OptionSetPredictTime(false),
			progressbar.OptionClearOnFinish(),
		)
	}
	t.bar.Describe(Label(stage))
	_ = t.bar.Set(index)
}

// Finish completes and clears the bar.
func (t *Terminal) Finish() {
	if t.bar != nil {
		_ = t.bar.Finish()
	}
}

// Plain writes one line per stage, for logs and non-TTY output.
type Plain struct {
	Out io.Writer
}

func NewPlain(out io.Writer) *Plain {
	if out == nil {
		out = os.Stderr
	}
	return &Plain{Out: out}
}

func (p *Plain) StageStarted(stage workflow.Stage, index, total int) {
	fmt.Fprintf(p.Out, "[%d/%d] %s\n", index+1, total, Label(stage))
}
