package llm

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// NewCompleter creates the completion provider named in config
func NewCompleter(config Config, log logrus.FieldLogger) (Completer, error) {
	switch strings.ToLower(config.Provider) {
	case "openai", "":
		return NewOpenAIProvider(config, log)
	case "ollama":
		return NewOllamaProvider(config, log)
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, ollama)", config.Provider)
	}
}

// NewEmbedder creates the embedding provider named in config
func NewEmbedder(config Config, log logrus.FieldLogger) (Embedder, error) {
	switch strings.ToLower(config.Provider) {
	case "openai", "":
		return NewOpenAIProvider(config, log)
	case "ollama":
		return NewOllamaProvider(config, log)
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s (supported: openai, ollama)", config.Provider)
	}
}
