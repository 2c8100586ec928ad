package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/medpilot/medpilot/internal/llm"
)

const extractSystemPrompt = `You are a clinical intake assistant. Extract the individual symptoms from the patient's description.

Respond with JSON only, in this shape:
{"symptoms": ["symptom one", "symptom two"]}

Rules:
- Use short, normalized symptom names (e.g. "chest pain", not "I have had some pain in my chest").
- Do not invent symptoms that are not in the description.
- If the description contains no symptoms, return an empty list.`

// SymptomExtractor turns free-text patient input into a normalized
// symptom list.
type SymptomExtractor struct {
	provider llm.Provider
	model    string
}

func NewSymptomExtractor(provider llm.Provider, model string) *SymptomExtractor {
	return &SymptomExtractor{provider: provider, model: model}
}

// Extract returns the symptoms mentioned in input. The result is never
// nil: no symptoms parses to an empty slice.
func (e *SymptomExtractor) Extract(ctx context.Context, input string) ([]string, error) {
	resp, err := e.provider.Complete(ctx, llm.CompletionRequest{
		Model: e.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: extractSystemPrompt},
			{Role: llm.RoleUser, Content: input},
		},
		MaxTokens: 512,
		JSONMode:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("extract symptoms: %w", err)
	}

	symptoms, err := parseSymptoms(resp.Content)
	if err != nil {
		return nil, err
	}
	return symptoms, nil
}

// parseSymptoms accepts the documented object shape plus the common
// deviations: a bare JSON array, or a single string for one symptom.
func parseSymptoms(raw string) ([]string, error) {
	var wrapped struct {
		Symptoms []json.RawMessage `json:"symptoms"`
	}
	if err := decodeJSON(raw, &wrapped); err == nil && wrapped.Symptoms != nil {
		return normalizeSymptoms(wrapped.Symptoms)
	}

	var list []json.RawMessage
	if err := decodeJSON(raw, &list); err == nil {
		return normalizeSymptoms(list)
	}

	var single string
	if err := decodeJSON(raw, &single); err == nil {
		if s := strings.TrimSpace(single); s != "" {
			return []string{strings.ToLower(s)}, nil
		}
		return []string{}, nil
	}

	return nil, fmt.Errorf("unrecognized symptom response: %q", raw)
}

func normalizeSymptoms(items []json.RawMessage) ([]string, error) {
	out := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err != nil {
			// Some models emit {"name": "..."} elements.
			var obj struct {
				Name string `json:"name"`
			}
			if err := json.Unmarshal(item, &obj); err != nil || obj.Name == "" {
				continue
			}
			s = obj.Name
		}
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}
