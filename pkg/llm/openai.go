package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAIClient serves every OpenAI-compatible backend: the OpenAI API itself,
// Azure OpenAI deployments, self-hosted Ollama, and Groq's hosted endpoint.
// They differ only in base URL and authentication shape.
type OpenAIClient struct {
	client      *openai.Client
	model       string
	label       string
	maxTokens   int
	temperature float32
	logger      *zap.Logger
}

// OpenAIConfig holds configuration for creating an OpenAI-compatible client.
type OpenAIConfig struct {
	Endpoint    string // Base URL; empty means the provider default
	Model       string
	APIKey      string // Optional for local endpoints (Ollama)
	Azure       bool   // Use the Azure auth/URL scheme
	Label       string // Backend identifier prefix, e.g. "ollama"
	MaxTokens   int
	Temperature float64
}

// NewOpenAIClient creates a client for any OpenAI-compatible endpoint.
func NewOpenAIClient(cfg *OpenAIConfig, logger *zap.Logger) (*OpenAIClient, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	var clientConfig openai.ClientConfig
	if cfg.Azure {
		if cfg.Endpoint == "" {
			return nil, fmt.Errorf("endpoint is required for azure")
		}
		clientConfig = openai.DefaultAzureConfig(cfg.APIKey, cfg.Endpoint)
	} else {
		clientConfig = openai.DefaultConfig(cfg.APIKey)
		if cfg.Endpoint != "" {
			clientConfig.BaseURL = strings.TrimSuffix(cfg.Endpoint, "/")
		}
	}

	label := cfg.Model
	if cfg.Label != "" {
		label = cfg.Label + ":" + cfg.Model
	}

	return &OpenAIClient{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       cfg.Model,
		label:       label,
		maxTokens:   cfg.MaxTokens,
		temperature: float32(cfg.Temperature),
		logger:      logger.Named("llm"),
	}, nil
}

// Generate produces a chat completion for the prompt pair.
func (c *OpenAIClient) Generate(ctx context.Context, systemPrompt, userPrompt string) (*GenerateResult, error) {
	c.logger.Debug("LLM request",
		zap.String("model", c.model),
		zap.Int("prompt_len", len(userPrompt)))

	start := time.Now()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		c.logger.Error("LLM request failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, ClassifyError(err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	c.logger.Info("LLM request completed",
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.Duration("elapsed", time.Since(start)))

	return &GenerateResult{
		Content:     resp.Choices[0].Message.Content,
		TotalTokens: resp.Usage.TotalTokens,
	}, nil
}

// Model returns the backend identifier.
func (c *OpenAIClient) Model() string {
	return c.label
}
