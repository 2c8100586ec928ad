package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/medpilot/medpilot/internal/cases"
	"github.com/medpilot/medpilot/internal/llm"
)

const judgeSystemPrompt = `You are a senior clinical reviewer. Given a presentation, a primary diagnosis list, and an alternative list, produce the final ranked differential and an overall confidence in it.

Respond with JSON only:
{"diagnoses": [{"name": "condition", "confidence": 0.0}], "confidence": 0.0, "reasoning": "one or two sentences"}

Rules:
- Merge the two lists; keep at most 3 conditions, ranked most likely first.
- Per-condition confidence reflects how likely that condition is.
- The top-level confidence reflects how confident you are in the differential as a whole, between 0.0 and 1.0. Be conservative: incomplete information means lower confidence.`

// Judge reviews the primary and alternative diagnoses and settles the
// final differential with an overall confidence.
type Judge struct {
	provider llm.Provider
	model    string
}

func NewJudge(provider llm.Provider, model string) *Judge {
	return &Judge{provider: provider, model: model}
}

func (j *Judge) Review(ctx context.Context, symptoms []string, primary, alternatives []Condition) (Judgment, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Symptoms: %s\n\nPrimary candidates:\n", strings.Join(symptoms, ", "))
	writeConditions(&sb, primary)
	sb.WriteString("\nAlternative candidates:\n")
	writeConditions(&sb, alternatives)

	resp, err := j.provider.Complete(ctx, llm.CompletionRequest{
		Model: j.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: judgeSystemPrompt},
			{Role: llm.RoleUser, Content: sb.String()},
		},
		MaxTokens: 1024,
		JSONMode:  true,
	})
	if err != nil {
		return Judgment{}, fmt.Errorf("review diagnoses: %w", err)
	}

	var parsed Judgment
	if err := decodeJSON(resp.Content, &parsed); err != nil {
		return Judgment{}, err
	}

	parsed.Confidence = clamp01(parsed.Confidence)
	cleaned := make([]Condition, 0, len(parsed.Diagnoses))
	for _, c := range parsed.Diagnoses {
		c.Name = strings.ToLower(strings.TrimSpace(c.Name))
		if c.Name == "" {
			continue
		}
		c.Confidence = clamp01(c.Confidence)
		cleaned = append(cleaned, c)
	}
	parsed.Diagnoses = cleaned
	return parsed, nil
}

const riskValidationPrompt = `You are a senior clinical reviewer re-checking a triage decision. Given the final differential and the earlier risk assessment, confirm or adjust the risk level.

Respond with JSON only:
{"risk_level": "low|medium|high", "notes": "one sentence"}

Adjust the level only when the final differential clearly contradicts it.`

// ValidateRisk re-checks the earlier risk assessment against the final
// differential before the recommendation is written.
func (j *Judge) ValidateRisk(ctx context.Context, risk RiskAssessment, diagnoses []Condition) (RiskAssessment, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Earlier risk level: %s (%s)\n\nFinal differential:\n", risk.Level, risk.Notes)
	writeConditions(&sb, diagnoses)

	resp, err := j.provider.Complete(ctx, llm.CompletionRequest{
		Model: j.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: riskValidationPrompt},
			{Role: llm.RoleUser, Content: sb.String()},
		},
		MaxTokens: 256,
		JSONMode:  true,
	})
	if err != nil {
		return RiskAssessment{}, fmt.Errorf("validate risk: %w", err)
	}

	var parsed struct {
		RiskLevel string `json:"risk_level"`
		Notes     string `json:"notes"`
	}
	if err := decodeJSON(resp.Content, &parsed); err != nil {
		return RiskAssessment{}, err
	}

	return RiskAssessment{Level: cases.ParseRiskLevel(parsed.RiskLevel), Notes: parsed.Notes}, nil
}

func writeConditions(sb *strings.Builder, conditions []Condition) {
	if len(conditions) == 0 {
		sb.WriteString("(none)\n")
		return
	}
	for _, c := range conditions {
		fmt.Fprintf(sb, "- %s (confidence %.2f): %s\n", c.Name, c.Confidence, c.Rationale)
	}
}
