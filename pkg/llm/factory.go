package llm

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/aml-forge/sar-engine/pkg/config"
)

// NewClientFromConfig creates an LLM client for the configured provider.
// Returns Client interface to enable dependency injection of mocks.
func NewClientFromConfig(cfg *config.LLMConfig, logger *zap.Logger) (Client, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIClient(&OpenAIConfig{
			Endpoint:    cfg.Endpoint,
			Model:       cfg.Model,
			APIKey:      cfg.APIKey,
			Label:       "openai:" + cfg.Model,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
		}, logger)
	case "azure":
		model := cfg.AzureDeployment
		if model == "" {
			model = cfg.Model
		}
		return NewOpenAIClient(&OpenAIConfig{
			Endpoint:    cfg.Endpoint,
			Model:       model,
			APIKey:      cfg.APIKey,
			Azure:       true,
			Label:       "azure:" + model,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
		}, logger)
	case "ollama":
		endpoint := cfg.Endpoint
		if endpoint == "" {
			endpoint = "http://localhost:11434/v1"
		}
		// Ollama ignores the key but the SDK requires one.
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = "ollama"
		}
		return NewOpenAIClient(&OpenAIConfig{
			Endpoint:    endpoint,
			Model:       cfg.Model,
			APIKey:      apiKey,
			Label:       "ollama:" + cfg.Model,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
		}, logger)
	case "groq":
		endpoint := cfg.Endpoint
		if endpoint == "" {
			endpoint = "https://api.groq.com/openai/v1"
		}
		return NewOpenAIClient(&OpenAIConfig{
			Endpoint:    endpoint,
			Model:       cfg.Model,
			APIKey:      cfg.APIKey,
			Label:       "groq:" + cfg.Model,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
		}, logger)
	case "anthropic":
		return NewAnthropicClient(&AnthropicConfig{
			Model:       cfg.Model,
			APIKey:      cfg.APIKey,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
		}, logger)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %q", cfg.Provider)
	}
}
