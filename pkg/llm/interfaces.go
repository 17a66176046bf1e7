// Package llm provides the pluggable narrative generation backends.
package llm

import "context"

// GenerateResult is a completed generation with usage stats.
type GenerateResult struct {
	Content     string
	TotalTokens int
}

// Client is the text-completion capability the pipeline depends on. Exactly
// one backend is active per process, selected by configuration. Use this
// interface for dependency injection to enable mocking in tests.
type Client interface {
	// Generate produces a completion for the given system instruction and
	// user prompt.
	Generate(ctx context.Context, systemPrompt, userPrompt string) (*GenerateResult, error)

	// Model returns the backend identifier recorded in the audit trail,
	// e.g. "gpt-4o" or "anthropic:claude-sonnet-4-5".
	Model() string
}

// Compile-time interface checks.
var (
	_ Client = (*OpenAIClient)(nil)
	_ Client = (*AnthropicClient)(nil)
	_ Client = (*MockClient)(nil)
)
