package cases

import (
	"strings"
	"time"
)

// Role identifies the caller of a pipeline run or query.
type Role string

const (
	RoleDoctor     Role = "doctor"
	RoleNurse      Role = "nurse"
	RolePatient    Role = "patient"
	RoleResearcher Role = "researcher"
	RoleOther      Role = "other"
)

// ParseRole normalizes a role string. Unrecognized roles map to RoleOther,
// which receives the most restrictive treatment everywhere.
func ParseRole(s string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleDoctor:
		return RoleDoctor
	case RoleNurse:
		return RoleNurse
	case RolePatient:
		return RolePatient
	case RoleResearcher:
		return RoleResearcher
	default:
		return RoleOther
	}
}

// RiskLevel classifies the urgency of a case.
type RiskLevel string

const (
	RiskLow     RiskLevel = "low"
	RiskMedium  RiskLevel = "medium"
	RiskHigh    RiskLevel = "high"
	RiskUnknown RiskLevel = "unknown"
)

// ParseRiskLevel normalizes a risk level string; anything unrecognized
// becomes RiskUnknown.
func ParseRiskLevel(s string) RiskLevel {
	switch RiskLevel(strings.ToLower(strings.TrimSpace(s))) {
	case RiskLow:
		return RiskLow
	case RiskMedium:
		return RiskMedium
	case RiskHigh:
		return RiskHigh
	default:
		return RiskUnknown
	}
}

// Diagnosis is one named condition with its confidence.
type Diagnosis struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// Record is the persisted summary of a completed case. It is derived from
// the pipeline state, immutable once written, and never contains raw
// (unredacted) patient text.
type Record struct {
	ID               string      `json:"id"`
	CreatedAt        time.Time   `json:"created_at"`
	Symptoms         []string    `json:"symptoms"`
	Diagnoses        []Diagnosis `json:"diagnoses"`
	Confidence       float64     `json:"confidence"`
	RiskLevel        RiskLevel   `json:"risk_level"`
	UserRole         Role        `json:"user_role"`
	SensitiveContent bool        `json:"sensitive_content"`
	Validated        bool        `json:"validated"`
}

// SimilarCase is a stored case ranked by symptom overlap with a query.
type SimilarCase struct {
	Record
	MatchingSymptoms int `json:"matching_symptoms"`
}

// Comorbidity is a diagnosis that co-occurs with a queried diagnosis.
type Comorbidity struct {
	Name         string `json:"name"`
	CoOccurrence int    `json:"co_occurrence"`
}

// Statistics summarizes the case database.
type Statistics struct {
	TotalCases         int `json:"total_cases"`
	TotalSymptoms      int `json:"total_symptoms"`
	TotalDiagnoses     int `json:"total_diagnoses"`
	CasesWithDiagnosis int `json:"cases_with_diagnosis"`
}
