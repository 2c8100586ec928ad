package safety

import (
	"context"
	"fmt"
	"strings"

	"github.com/medpilot/medpilot/internal/cases"
	"github.com/medpilot/medpilot/internal/llm"
)

// Gate performs role-aware sanitization of medical payloads. Detection
// and redaction are pure functions in this package; the gate only decides
// whether the generalization step is invoked and delegates its content to
// the reasoning provider.
type Gate struct {
	provider llm.Provider
	model    string
}

// NewGate creates a Gate backed by the given reasoning provider.
func NewGate(provider llm.Provider, model string) *Gate {
	return &Gate{provider: provider, model: model}
}

const sanitizePrompt = `Sanitize the following medical context by removing or generalizing sensitive information.
Sensitive conditions to handle: %s

Original context:
%s

Provide a sanitized version that maintains medical accuracy, removes the
specific sensitive conditions, uses appropriate generalizations, and
preserves non-sensitive information. Respond with the sanitized text only.`

// SanitizeForRole returns text suitable for the given role. Doctors
// receive the text unchanged. Other roles receive the original text when
// it contains no sensitive terms, otherwise a generalized version
// produced by the reasoning provider.
func (g *Gate) SanitizeForRole(ctx context.Context, text string, role cases.Role) (string, error) {
	if role == cases.RoleDoctor {
		return text, nil
	}

	found, terms := DetectSensitive(text)
	if !found {
		return text, nil
	}

	if g.provider == nil {
		return "", fmt.Errorf("sanitization required but no reasoning provider configured")
	}

	resp, err := g.provider.Complete(ctx, llm.CompletionRequest{
		Model: g.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: "You generalize sensitive medical information for restricted audiences."},
			{Role: llm.RoleUser, Content: fmt.Sprintf(sanitizePrompt, strings.Join(terms, ", "), text)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("sanitizing context: %w", err)
	}

	return strings.TrimSpace(resp.Content), nil
}
