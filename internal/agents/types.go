// Package agents implements the reasoning stages of the diagnostic
// pipeline. Each agent wraps a single LLM call with a focused prompt
// and a tolerant JSON parser; the orchestrator in internal/workflow
// sequences them.
package agents

import "github.com/medpilot/medpilot/internal/cases"

// Condition is one candidate diagnosis with the model's confidence in it.
type Condition struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
	Rationale  string  `json:"rationale,omitempty"`
}

// ContextSummary is the retrieved medical background for a symptom set.
type ContextSummary struct {
	Summary string   `json:"summary"`
	Sources []string `json:"sources,omitempty"`
}

// RiskAssessment is the urgency estimate produced before diagnosis.
type RiskAssessment struct {
	Level cases.RiskLevel `json:"level"`
	Notes string          `json:"notes,omitempty"`
}

// Judgment is the judge's review of primary and alternative diagnoses:
// a merged ranked list and an overall confidence in the top candidates.
type Judgment struct {
	Diagnoses  []Condition `json:"diagnoses"`
	Confidence float64     `json:"confidence"`
	Reasoning  string      `json:"reasoning,omitempty"`
}
