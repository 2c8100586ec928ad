package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/medpilot/medpilot/internal/knowledge"
	"github.com/medpilot/medpilot/internal/llm"
)

const retrieveSystemPrompt = `You are a medical reference assistant. Summarize the relevant background for the given symptoms, drawing only on the reference passages provided.

Respond with JSON only:
{"summary": "concise medical context relevant to these symptoms"}

Keep the summary factual and under 200 words. If the passages are not relevant, summarize general considerations for the symptoms instead.`

// ContextRetriever looks up reference passages for a symptom set and
// condenses them into a short context summary for the later stages.
type ContextRetriever struct {
	provider llm.Provider
	model    string
	base     *knowledge.Base
	topK     int
}

// NewContextRetriever creates a retriever. base may be nil, in which
// case summaries are produced from the model's own knowledge.
func NewContextRetriever(provider llm.Provider, model string, base *knowledge.Base) *ContextRetriever {
	return &ContextRetriever{provider: provider, model: model, base: base, topK: 3}
}

func (r *ContextRetriever) Retrieve(ctx context.Context, symptoms []string) (ContextSummary, error) {
	query := strings.Join(symptoms, ", ")

	var snippets []knowledge.Snippet
	if r.base != nil {
		var err error
		snippets, err = r.base.Search(ctx, query, r.topK)
		if err != nil {
			return ContextSummary{}, fmt.Errorf("retrieve context: %w", err)
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Symptoms: %s\n\n", query)
	if len(snippets) == 0 {
		sb.WriteString("No reference passages available.")
	} else {
		sb.WriteString("Reference passages:\n")
		for i, s := range snippets {
			fmt.Fprintf(&sb, "[%d] (%s) %s\n", i+1, s.Source, s.Content)
		}
	}

	resp, err := r.provider.Complete(ctx, llm.CompletionRequest{
		Model: r.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: retrieveSystemPrompt},
			{Role: llm.RoleUser, Content: sb.String()},
		},
		MaxTokens: 1024,
		JSONMode:  true,
	})
	if err != nil {
		return ContextSummary{}, fmt.Errorf("retrieve context: %w", err)
	}

	var parsed struct {
		Summary string `json:"summary"`
	}
	if err := decodeJSON(resp.Content, &parsed); err != nil {
		return ContextSummary{}, err
	}

	summary := ContextSummary{Summary: parsed.Summary}
	for _, s := range snippets {
		summary.Sources = append(summary.Sources, s.Source)
	}
	return summary, nil
}
