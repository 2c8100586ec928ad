// Package factcheck verifies a differential against an external search
// model before the validation decision. A failed or unconfigured check
// never aborts the pipeline; it yields an unchecked result so the
// validation stage can fall back to requiring human review.
package factcheck

import (
	"context"
	"fmt"
	"strings"

	"github.com/medpilot/medpilot/internal/agents"
	"github.com/medpilot/medpilot/internal/llm"
)

// Result is the outcome of a fact-check pass. Checked is false when the
// check could not run; callers treat that as zero confidence.
type Result struct {
	Checked         bool    `json:"checked"`
	ConfidenceScore float64 `json:"confidence_score"`
	IsReliable      bool    `json:"is_reliable"`
	Summary         string  `json:"summary,omitempty"`
}

// Checker verifies a differential for a symptom set.
type Checker interface {
	Check(ctx context.Context, symptoms []string, diagnoses []agents.Condition) (Result, error)
}

const checkSystemPrompt = `You are a medical fact checker with access to current medical literature. Verify whether the proposed conditions are medically plausible explanations for the symptoms.

Respond with JSON only:
{"confidence_score": 0.0, "is_reliable": true, "summary": "one or two sentences citing what you verified"}

confidence_score is between 0.0 and 1.0 and reflects how well the literature supports the differential. is_reliable is true when the differential has no implausible entries.`

// reliableThreshold is the minimum score at which a check counts as
// reliable even if the model omits the is_reliable field.
const reliableThreshold = 0.7

// SonarChecker fact-checks through a search-grounded model behind an
// OpenAI-compatible API.
type SonarChecker struct {
	provider llm.Provider
	model    string
}

// NewSonarChecker builds a checker against the given OpenAI-compatible
// endpoint. It returns nil, without error, when apiKey is empty: the
// pipeline treats a nil checker as "fact checking disabled".
func NewSonarChecker(apiKey, baseURL, model string) *SonarChecker {
	if apiKey == "" {
		return nil
	}
	return &SonarChecker{
		provider: llm.NewOpenAICompatibleProvider(apiKey, baseURL, model),
		model:    model,
	}
}

func (c *SonarChecker) Check(ctx context.Context, symptoms []string, diagnoses []agents.Condition) (Result, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Symptoms: %s\n\nProposed conditions:\n", strings.Join(symptoms, ", "))
	for _, d := range diagnoses {
		fmt.Fprintf(&sb, "- %s (confidence %.2f)\n", d.Name, d.Confidence)
	}

	resp, err := c.provider.Complete(ctx, llm.CompletionRequest{
		Model: c.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: checkSystemPrompt},
			{Role: llm.RoleUser, Content: sb.String()},
		},
		MaxTokens: 1024,
	})
	if err != nil {
		return Result{}, fmt.Errorf("fact check: %w", err)
	}

	parsed, err := parseCheckResponse(resp.Content)
	if err != nil {
		return Result{}, err
	}
	return parsed, nil
}
