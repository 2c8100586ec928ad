package agents

import (
	"encoding/json"
	"fmt"
	"strings"
)

// decodeJSON parses a model response into v, tolerating the markdown
// code fences some models wrap JSON output in.
func decodeJSON(raw string, v any) error {
	cleaned := strings.TrimSpace(raw)

	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimPrefix(cleaned, "```")
		if idx := strings.LastIndex(cleaned, "```"); idx >= 0 {
			cleaned = cleaned[:idx]
		}
		cleaned = strings.TrimSpace(cleaned)
	}

	if err := json.Unmarshal([]byte(cleaned), v); err != nil {
		return fmt.Errorf("parse model response: %w", err)
	}
	return nil
}
