package llm

// Role identifies a message sender in a reasoning conversation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single message in a reasoning conversation. Each
// pipeline stage sends a system prompt describing its task and a user
// message carrying the accumulated case data.
type Message struct {
	Role    Role
	Content string
}

// CompletionRequest is one call to the reasoning service. JSONMode
// asks the provider for structured output; the stage prompts all
// expect a JSON reply, so stages set it whenever the provider
// supports it.
type CompletionRequest struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float64
	JSONMode    bool
}

// CompletionResponse is the reasoning service's reply, with token
// usage for cost accounting.
type CompletionResponse struct {
	Content      string
	InputTokens  int
	OutputTokens int
	Model        string
	FinishReason string
}
