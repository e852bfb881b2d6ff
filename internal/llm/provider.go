// Package llm talks to completion and embedding services.
package llm

import (
	"context"
	"time"

	"github.com/ppiankov/litscreen/internal/model"
)

// Completer sends a built prompt to a completion model
type Completer interface {
	// Name returns the provider name
	Name() string

	// Complete returns the raw answer text for prompt
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// Embedder turns text into a fixed-length vector
type Embedder interface {
	// Name returns the provider name
	Name() string

	// Embed returns the embedding of text
	Embed(ctx context.Context, text string) ([]float64, error)
}

// CompletionRequest is one prompt sent to a completion model
type CompletionRequest struct {
	Model       model.ModelType
	Prompt      model.Prompt
	Temperature float32

	// MaxTokens limits the response length. Zero uses the provider default.
	MaxTokens int
}

// Config holds provider configuration
type Config struct {
	// Provider name: "openai", "ollama"
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for a single API request
	Timeout time.Duration

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "openai",
		Timeout:   2 * time.Minute,
		MaxTokens: 1000,
	}
}

// ConfigFromModel converts the completion section of the run configuration
func ConfigFromModel(c model.LLMConfig) Config {
	cfg := DefaultConfig()
	cfg.Provider = c.Provider
	cfg.Model = c.Model
	cfg.APIKey = c.APIKey
	cfg.BaseURL = c.BaseURL
	if c.Timeout > 0 {
		cfg.Timeout = c.Timeout
	}
	if c.MaxTokens > 0 {
		cfg.MaxTokens = c.MaxTokens
	}
	return cfg
}

// EmbeddingConfigFromModel converts the embedding section. The API key is
// shared with the completion service.
func EmbeddingConfigFromModel(e model.EmbeddingConfig, c model.LLMConfig) Config {
	cfg := DefaultConfig()
	cfg.Provider = e.Provider
	cfg.Model = e.Model
	cfg.APIKey = c.APIKey
	cfg.BaseURL = e.BaseURL
	if c.Timeout > 0 {
		cfg.Timeout = c.Timeout
	}
	return cfg
}
