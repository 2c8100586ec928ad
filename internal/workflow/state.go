// Package workflow sequences the diagnostic pipeline: safety gating,
// the reasoning stages, the fact check, the validation decision, and
// persistence. It is the only package with real control flow; the
// stages themselves live in internal/agents.
package workflow

import (
	"github.com/medpilot/medpilot/internal/agents"
	"github.com/medpilot/medpilot/internal/cases"
	"github.com/medpilot/medpilot/internal/factcheck"
)

// Request is one incoming diagnostic request.
type Request struct {
	// PatientInput is the free-text description. May be empty; an
	// empty input produces an empty symptom list, not an error.
	PatientInput string `json:"patient_input"`
	// UserRole is the caller's declared role.
	UserRole cases.Role `json:"user_role"`
	// ValidationStatus carries a clinician's sign-off when a case
	// that required validation is resubmitted. Nil means no sign-off.
	ValidationStatus *bool `json:"validation_status,omitempty"`
}

// CaseState accumulates the pipeline's output. Each stage writes only
// the fields it owns; no stage rewrites an earlier stage's fields.
type CaseState struct {
	// PatientInput is the redacted form once PII was detected; the
	// raw text is discarded at gating and never reaches later stages
	// or storage.
	PatientInput string     `json:"patient_input"`
	UserRole     cases.Role `json:"user_role"`

	Symptoms            []string              `json:"symptoms"`
	MedicalContext      agents.ContextSummary `json:"medical_context"`
	RiskAssessment      agents.RiskAssessment `json:"risk_assessment"`
	Diagnosis           []agents.Condition    `json:"diagnosis"`
	Alternatives        []agents.Condition    `json:"alternatives"`
	JudgeEvaluation     agents.Judgment       `json:"judge_evaluation"`
	FactCheck           factcheck.Result      `json:"fact_check"`
	FinalRecommendation string                `json:"final_recommendation"`

	PIIDetected              bool  `json:"pii_detected"`
	SensitiveContentDetected bool  `json:"sensitive_content_detected"`
	RequiresValidation       bool  `json:"requires_validation"`
	ValidationStatus         *bool `json:"validation_status,omitempty"`

	// Persistence annotations. StoreError reports a failed write as a
	// side note; it never fails the request.
	Persisted  bool   `json:"persisted"`
	CaseID     string `json:"case_id,omitempty"`
	StoreError string `json:"store_error,omitempty"`
}

// record derives the persisted form from the completed state. Only
// redacted data reaches it. The stored diagnoses are the diagnosis
// stage's output, and the stored confidence is the fact-check score
// for them; the judge's merged view stays on the returned state only.
func (s *CaseState) record() cases.Record {
	diagnoses := make([]cases.Diagnosis, 0, len(s.Diagnosis))
	for _, c := range s.Diagnosis {
		diagnoses = append(diagnoses, cases.Diagnosis{Name: c.Name, Confidence: c.Confidence})
	}

	return cases.Record{
		Symptoms:         s.Symptoms,
		Diagnoses:        diagnoses,
		Confidence:       s.FactCheck.ConfidenceScore,
		RiskLevel:        s.RiskAssessment.Level,
		UserRole:         s.UserRole,
		SensitiveContent: s.SensitiveContentDetected,
		Validated:        s.ValidationStatus != nil && *s.ValidationStatus,
	}
}
