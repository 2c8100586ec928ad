package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to .medpilot.yml.
func RunWizard() (*Config, error) {
	fmt.Println("Welcome to medpilot! Let's configure your deployment.")
	fmt.Println()

	// 1. Provider selection.
	providerPrompt := promptui.Select{
		Label: "Select LLM provider",
		Items: []string{"openai", "anthropic", "ollama"},
	}
	_, providerStr, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	provider := ProviderType(providerStr)

	// 2. Model.
	modelPrompt := promptui.Prompt{
		Label:   "Reasoning model",
		Default: DefaultModelFor(provider),
	}
	model, err := modelPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}

	// 3. Operating mode. Controlled mode routes every non-doctor case
	// through human validation before it is persisted.
	modePrompt := promptui.Select{
		Label: "Operating mode",
		Items: []string{
			"controlled — every non-doctor case requires human validation",
			"autonomous — validation only for low-confidence or sensitive cases",
		},
	}
	modeIdx, _, err := modePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("mode selection: %w", err)
	}
	autonomous := modeIdx == 1

	// 4. Confidence threshold.
	thresholdPrompt := promptui.Prompt{
		Label:   "Fact-check confidence threshold (0-1)",
		Default: "0.8",
		Validate: func(s string) error {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil || v < 0 || v > 1 {
				return fmt.Errorf("must be a number between 0 and 1")
			}
			return nil
		},
	}
	thresholdStr, err := thresholdPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("confidence threshold: %w", err)
	}
	threshold, _ := strconv.ParseFloat(thresholdStr, 64)

	// 5. Data directory.
	dataPrompt := promptui.Prompt{
		Label:   "Data directory",
		Default: ".medpilot",
	}
	dataDir, err := dataPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}

	cfg := DefaultConfig()
	cfg.Provider = provider
	cfg.Model = model
	cfg.EmbeddingProvider = provider
	cfg.EmbeddingModel = DefaultEmbeddingModelFor(provider)
	cfg.AutonomousMode = autonomous
	cfg.ConfidenceThreshold = threshold
	cfg.DataDir = dataDir

	// Check for API keys.
	if envVar := APIKeyEnvVar(provider); envVar != "" && os.Getenv(envVar) == "" {
		fmt.Printf("\nNote: Set %s in your environment before running medpilot diagnose.\n", envVar)
	}
	if FactCheckAPIKey() == "" {
		fmt.Println("Note: PERPLEXITY_API_KEY is not set; diagnoses will not be fact-checked" +
			" and non-doctor cases will always require validation.")
	}

	if err := cfg.Save(".medpilot.yml"); err != nil {
		return nil, err
	}

	fmt.Println("\nConfiguration saved to .medpilot.yml")
	return cfg, nil
}
