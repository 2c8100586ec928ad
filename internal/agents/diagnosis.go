package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/medpilot/medpilot/internal/llm"
)

const diagnoseSystemPrompt = `You are a diagnostic reasoning assistant. Propose the most likely conditions for the presentation.

Respond with JSON only:
{"conditions": [{"name": "condition name", "confidence": 0.0, "rationale": "one sentence"}]}

Rules:
- List at most 3 conditions, most likely first.
- confidence is your probability estimate between 0.0 and 1.0.
- Use common condition names, lowercase.`

const alternativesSystemPrompt = `You are a diagnostic reasoning assistant playing devil's advocate. Given a presentation and the primary candidate conditions, propose plausible alternatives that the primary list may have missed, including less common conditions that would be dangerous to overlook.

Respond with JSON only:
{"conditions": [{"name": "condition name", "confidence": 0.0, "rationale": "one sentence"}]}

Rules:
- List at most 3 alternatives, none of which appear in the primary list.
- confidence is your probability estimate between 0.0 and 1.0.`

// DiagnosisGenerator proposes primary candidate conditions.
type DiagnosisGenerator struct {
	provider llm.Provider
	model    string
}

func NewDiagnosisGenerator(provider llm.Provider, model string) *DiagnosisGenerator {
	return &DiagnosisGenerator{provider: provider, model: model}
}

func (g *DiagnosisGenerator) Generate(ctx context.Context, symptoms []string, background ContextSummary, risk RiskAssessment) ([]Condition, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Symptoms: %s\n", strings.Join(symptoms, ", "))
	fmt.Fprintf(&sb, "Assessed risk level: %s\n", risk.Level)
	if background.Summary != "" {
		fmt.Fprintf(&sb, "\nMedical context:\n%s\n", background.Summary)
	}

	return completeConditions(ctx, g.provider, g.model, diagnoseSystemPrompt, sb.String())
}

// AlternativeGenerator proposes conditions the primary pass may have
// missed, so the judge can weigh a second opinion.
type AlternativeGenerator struct {
	provider llm.Provider
	model    string
}

func NewAlternativeGenerator(provider llm.Provider, model string) *AlternativeGenerator {
	return &AlternativeGenerator{provider: provider, model: model}
}

func (g *AlternativeGenerator) Generate(ctx context.Context, symptoms []string, primary []Condition) ([]Condition, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Symptoms: %s\n\nPrimary candidates:\n", strings.Join(symptoms, ", "))
	for _, c := range primary {
		fmt.Fprintf(&sb, "- %s (confidence %.2f)\n", c.Name, c.Confidence)
	}

	return completeConditions(ctx, g.provider, g.model, alternativesSystemPrompt, sb.String())
}

func completeConditions(ctx context.Context, provider llm.Provider, model, system, user string) ([]Condition, error) {
	resp, err := provider.Complete(ctx, llm.CompletionRequest{
		Model: model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: system},
			{Role: llm.RoleUser, Content: user},
		},
		MaxTokens: 1024,
		JSONMode:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("generate conditions: %w", err)
	}

	var parsed struct {
		Conditions []Condition `json:"conditions"`
	}
	if err := decodeJSON(resp.Content, &parsed); err != nil {
		// Some models return the array without the wrapper object.
		var list []Condition
		if err2 := decodeJSON(resp.Content, &list); err2 != nil {
			return nil, err
		}
		parsed.Conditions = list
	}

	out := make([]Condition, 0, len(parsed.Conditions))
	for _, c := range parsed.Conditions {
		c.Name = strings.ToLower(strings.TrimSpace(c.Name))
		if c.Name == "" {
			continue
		}
		c.Confidence = clamp01(c.Confidence)
		out = append(out, c)
	}
	return out, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
