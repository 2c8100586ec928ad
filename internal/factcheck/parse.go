package factcheck

import (
	"encoding/json"
	"fmt"
	"strings"
)

// parseCheckResponse extracts the check result from a model reply.
// Search-grounded models often wrap JSON in prose or code fences, so
// the parser looks for the first JSON object in the text.
func parseCheckResponse(raw string) (Result, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return Result{}, fmt.Errorf("no JSON object in fact check response: %q", raw)
	}

	var parsed struct {
		ConfidenceScore float64 `json:"confidence_score"`
		IsReliable      *bool   `json:"is_reliable"`
		Summary         string  `json:"summary"`
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), &parsed); err != nil {
		return Result{}, fmt.Errorf("parse fact check response: %w", err)
	}

	score := parsed.ConfidenceScore
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}

	reliable := score >= reliableThreshold
	if parsed.IsReliable != nil {
		reliable = *parsed.IsReliable
	}

	return Result{
		Checked:         true,
		ConfidenceScore: score,
		IsReliable:      reliable,
		Summary:         parsed.Summary,
	}, nil
}
