package audit

import "time"

// Resource kinds recorded in the access log.
const (
	ResourcePipeline      = "diagnostic_pipeline"
	ResourceSimilarCases  = "similar_cases"
	ResourceComorbidities = "comorbidities"
	ResourceStatistics    = "case_statistics"
	ResourceValidation    = "case_validation"
)

// Entry is a single access-attempt record. Entries are written for every
// pipeline run and query operation, successful or denied, so that access
// to medical data stays reviewable after the fact.
type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Role      string    `json:"role"`
	Resource  string    `json:"resource"`
	Success   bool      `json:"success"`
	Detail    string    `json:"detail,omitempty"`
}
