package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/medpilot/medpilot/internal/cases"
	"github.com/medpilot/medpilot/internal/llm"
)

const riskSystemPrompt = `You are a triage assistant. Assess the urgency of the patient's presentation.

Respond with JSON only:
{"risk_level": "low|medium|high", "notes": "one sentence explaining the level"}

Guidelines:
- "high": symptoms that could indicate a life-threatening condition or need same-day care.
- "medium": symptoms that warrant a medical appointment soon.
- "low": symptoms that are typically self-limiting.`

// RiskEvaluator estimates the urgency of a presentation before the
// diagnostic stages run.
type RiskEvaluator struct {
	provider llm.Provider
	model    string
}

func NewRiskEvaluator(provider llm.Provider, model string) *RiskEvaluator {
	return &RiskEvaluator{provider: provider, model: model}
}

func (r *RiskEvaluator) Evaluate(ctx context.Context, symptoms []string, background ContextSummary) (RiskAssessment, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Symptoms: %s\n", strings.Join(symptoms, ", "))
	if background.Summary != "" {
		fmt.Fprintf(&sb, "\nMedical context:\n%s\n", background.Summary)
	}

	resp, err := r.provider.Complete(ctx, llm.CompletionRequest{
		Model: r.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: riskSystemPrompt},
			{Role: llm.RoleUser, Content: sb.String()},
		},
		MaxTokens: 256,
		JSONMode:  true,
	})
	if err != nil {
		return RiskAssessment{}, fmt.Errorf("assess risk: %w", err)
	}

	var parsed struct {
		RiskLevel string `json:"risk_level"`
		Notes     string `json:"notes"`
	}
	if err := decodeJSON(resp.Content, &parsed); err != nil {
		return RiskAssessment{}, err
	}

	return RiskAssessment{
		Level: cases.ParseRiskLevel(parsed.RiskLevel),
		Notes: parsed.Notes,
	}, nil
}
