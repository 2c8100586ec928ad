package cmd

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/medpilot/medpilot/internal/access"
	"github.com/medpilot/medpilot/internal/agents"
	"github.com/medpilot/medpilot/internal/audit"
	"github.com/medpilot/medpilot/internal/cases"
	"github.com/medpilot/medpilot/internal/config"
	"github.com/medpilot/medpilot/internal/db"
	"github.com/medpilot/medpilot/internal/embeddings"
	"github.com/medpilot/medpilot/internal/factcheck"
	"github.com/medpilot/medpilot/internal/knowledge"
	"github.com/medpilot/medpilot/internal/llm"
	"github.com/medpilot/medpilot/internal/safety"
	"github.com/medpilot/medpilot/internal/workflow"
)

// loadConfig loads and validates the config with a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `medpilot init` to create a config file", err)
	}
	return cfg, nil
}

func openDatabase(cfg *config.Config) (*db.DB, error) {
	return db.Open(filepath.Join(cfg.DataDir, "medpilot.db"))
}

// createLLMProviderFromConfig creates the reasoning provider.
func createLLMProviderFromConfig(cfg *config.Config) (llm.Provider, error) {
	return llm.NewProvider(string(cfg.Provider), cfg.Model)
}

// createEmbedderFromConfig creates the embedder the knowledge base uses.
func createEmbedderFromConfig(cfg *config.Config) (embeddings.Embedder, error) {
	provider := cfg.EmbeddingProvider
	if provider == "" {
		provider = cfg.Provider
	}
	model := cfg.EmbeddingModel
	if model == "" {
		model = config.DefaultEmbeddingModelFor(provider)
	}

	switch provider {
	case config.ProviderOllama:
		return embeddings.NewOllamaEmbedder(model, 768, ""), nil
	default:
		// Anthropic has no embedding endpoint; OpenAI serves as the
		// embedding backend for it too.
		apiKey := os.Getenv(config.APIKeyEnvVar(config.ProviderOpenAI))
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for embeddings (provider %s)", provider)
		}
		return embeddings.NewOpenAIEmbedder(apiKey, embeddings.OpenAIModel(model)), nil
	}
}

// openKnowledgeBase creates the knowledge base and loads a persisted
// snapshot from the data dir when one exists.
func openKnowledgeBase(cfg *config.Config) (*knowledge.Base, error) {
	embedder, err := createEmbedderFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	base, err := knowledge.NewBase(embedder)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(filepath.Join(cfg.DataDir, "knowledge.gob.gz")); err == nil {
		if err := base.Load(cfg.DataDir); err != nil {
			return nil, fmt.Errorf("loading knowledge base: %w", err)
		}
	}
	return base, nil
}

// pipeline bundles everything a command needs to run or query the
// diagnostic workflow.
type pipeline struct {
	deps    workflow.Deps
	cfg     workflow.Config
	queries *workflow.Queries
	audit   *audit.Store
	close   func()
}

// buildPipeline wires the full dependency graph from config. The
// knowledge base is optional: without embedding credentials the
// context stage falls back to the model's own knowledge.
func buildPipeline(cfg *config.Config) (*pipeline, error) {
	provider, err := createLLMProviderFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	database, err := openDatabase(cfg)
	if err != nil {
		return nil, err
	}

	base, err := openKnowledgeBase(cfg)
	if err != nil {
		if verbose {
			log.Printf("knowledge base unavailable: %v", err)
		}
		base = nil
	}

	caseStore := cases.NewStore(database)
	auditStore := audit.NewStore(database)
	policy := access.NewPolicy(auditStore)

	deps := workflow.Deps{
		Extractor:    agents.NewSymptomExtractor(provider, cfg.Model),
		Retriever:    agents.NewContextRetriever(provider, cfg.Model, base),
		Risk:         agents.NewRiskEvaluator(provider, cfg.Model),
		Diagnoser:    agents.NewDiagnosisGenerator(provider, cfg.Model),
		Alternatives: agents.NewAlternativeGenerator(provider, cfg.Model),
		Judge:        agents.NewJudge(provider, cfg.Model),
		Recommender:  agents.NewRecommender(provider, cfg.Model),
		Sanitizer:    safety.NewGate(provider, cfg.Model),
		Store:        caseStore,
		Policy:       policy,
	}

	// Keep the interface field nil when the checker is disabled; a
	// typed nil would pass the orchestrator's nil check.
	if checker := factcheck.NewSonarChecker(config.FactCheckAPIKey(), cfg.FactCheck.BaseURL, cfg.FactCheck.Model); checker != nil {
		deps.FactChecker = checker
	} else if verbose {
		log.Println("PERPLEXITY_API_KEY not set; fact checking disabled, validation will be required")
	}

	return &pipeline{
		deps:    deps,
		cfg:     workflow.Config{AutonomousMode: cfg.AutonomousMode, ConfidenceThreshold: cfg.ConfidenceThreshold},
		queries: workflow.NewQueries(caseStore, policy),
		audit:   auditStore,
		close:   func() { database.Close() },
	}, nil
}
