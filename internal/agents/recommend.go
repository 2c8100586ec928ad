package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/medpilot/medpilot/internal/cases"
	"github.com/medpilot/medpilot/internal/llm"
)

const recommendSystemPrompt = `You are a medical assistant writing the closing recommendation of a diagnostic report. Given the final differential, the risk level, and whether the result still awaits clinician validation, write a short recommendation for the reader.

Respond with JSON only:
{"recommendation": "two to four sentences"}

Rules:
- Recommend concrete next steps (self-care, appointment, urgent care) matched to the risk level.
- If the result awaits validation, say so and advise against acting on it alone.
- Never present the differential as a confirmed diagnosis.`

// Recommender writes the closing recommendation of the report.
type Recommender struct {
	provider llm.Provider
	model    string
}

func NewRecommender(provider llm.Provider, model string) *Recommender {
	return &Recommender{provider: provider, model: model}
}

func (r *Recommender) Recommend(ctx context.Context, judgment Judgment, risk cases.RiskLevel, awaitingValidation bool) (string, error) {
	var sb strings.Builder
	sb.WriteString("Final differential:\n")
	writeConditions(&sb, judgment.Diagnoses)
	fmt.Fprintf(&sb, "\nOverall confidence: %.2f\nRisk level: %s\nAwaiting clinician validation: %t\n",
		judgment.Confidence, risk, awaitingValidation)

	resp, err := r.provider.Complete(ctx, llm.CompletionRequest{
		Model: r.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: recommendSystemPrompt},
			{Role: llm.RoleUser, Content: sb.String()},
		},
		MaxTokens: 512,
		JSONMode:  true,
	})
	if err != nil {
		return "", fmt.Errorf("generate recommendation: %w", err)
	}

	var parsed struct {
		Recommendation string `json:"recommendation"`
	}
	if err := decodeJSON(resp.Content, &parsed); err != nil {
		return "", err
	}
	return strings.TrimSpace(parsed.Recommendation), nil
}
