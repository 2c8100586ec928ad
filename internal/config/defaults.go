package config

// defaultModels maps each provider to its default reasoning and embedding models.
var defaultModels = map[ProviderType]struct {
	Model          string
	EmbeddingModel string
}{
	ProviderOpenAI:    {Model: "gpt-4o", EmbeddingModel: "text-embedding-3-small"},
	ProviderAnthropic: {Model: "claude-sonnet-4-5-20250929", EmbeddingModel: "text-embedding-3-small"},
	ProviderOllama:    {Model: "llama3", EmbeddingModel: "nomic-embed-text"},
}

// DefaultConfig returns a Config with sensible defaults. Autonomous mode
// is off by default; every non-doctor case then requires human validation.
func DefaultConfig() *Config {
	return &Config{
		Provider:            ProviderOpenAI,
		Model:               "gpt-4o",
		EmbeddingProvider:   ProviderOpenAI,
		EmbeddingModel:      "text-embedding-3-small",
		AutonomousMode:      false,
		ConfidenceThreshold: 0.8,
		DataDir:             ".medpilot",
		KnowledgeDir:        "knowledge",
		FactCheck: FactCheckConfig{
			BaseURL: "https://api.perplexity.ai",
			Model:   "sonar",
		},
		Server: ServerConfig{
			Port: 8750,
		},
	}
}

// DefaultModelFor returns the default reasoning model for the given provider.
func DefaultModelFor(provider ProviderType) string {
	if m, ok := defaultModels[provider]; ok {
		return m.Model
	}
	return defaultModels[ProviderOpenAI].Model
}

// DefaultEmbeddingModelFor returns the default embedding model for the given provider.
func DefaultEmbeddingModelFor(provider ProviderType) string {
	if m, ok := defaultModels[provider]; ok {
		return m.EmbeddingModel
	}
	return defaultModels[ProviderOpenAI].EmbeddingModel
}
