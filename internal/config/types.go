package config

// ProviderType identifies an LLM provider.
type ProviderType string

const (
	ProviderOpenAI    ProviderType = "openai"
	ProviderAnthropic ProviderType = "anthropic"
	ProviderOllama    ProviderType = "ollama"
)

// FactCheckConfig holds settings for the independent fact-check service.
// The endpoint is OpenAI-compatible; the API key comes from
// PERPLEXITY_API_KEY. An empty key disables fact checking, which forces
// human validation for non-doctor roles.
type FactCheckConfig struct {
	BaseURL string `yaml:"base_url" koanf:"base_url"`
	Model   string `yaml:"model" koanf:"model"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port     int  `yaml:"port" koanf:"port"`
	AllowAll bool `yaml:"allow_all" koanf:"allow_all"`
}

// Config is the top-level medpilot configuration, corresponding to .medpilot.yml.
type Config struct {
	Provider          ProviderType    `yaml:"provider" koanf:"provider"`
	Model             string          `yaml:"model" koanf:"model"`
	EmbeddingProvider ProviderType    `yaml:"embedding_provider" koanf:"embedding_provider"`
	EmbeddingModel    string          `yaml:"embedding_model" koanf:"embedding_model"`
	AutonomousMode    bool            `yaml:"autonomous_mode" koanf:"autonomous_mode"`
	ConfidenceThreshold float64       `yaml:"confidence_threshold" koanf:"confidence_threshold"`
	DataDir           string          `yaml:"data_dir" koanf:"data_dir"`
	KnowledgeDir      string          `yaml:"knowledge_dir" koanf:"knowledge_dir"`
	FactCheck         FactCheckConfig `yaml:"fact_check" koanf:"fact_check"`
	Server            ServerConfig    `yaml:"server" koanf:"server"`
}
