package llm

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"

	"github.com/ppiankov/litscreen/internal/model"
)

// OpenAIProvider completes prompts and embeds text with the OpenAI API
type OpenAIProvider struct {
	client *openai.Client
	config Config
	log    logrus.FieldLogger
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(config Config, log logrus.FieldLogger) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	if config.HTTPProxy != "" || config.HTTPSProxy != "" {
		clientConfig.HTTPClient = newProxyClient(config)
	}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
		log:    log,
	}, nil
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// IsAvailable checks the key by listing models
func (p *OpenAIProvider) IsAvailable(ctx context.Context) bool {
	if _, err := p.client.ListModels(ctx); err != nil {
		p.log.WithError(err).Warn("OpenAI API check failed")
		return false
	}
	return true
}

// Complete sends a flattened prompt to the legacy completion endpoint and a
// turn sequence to the chat endpoint
func (p *OpenAIProvider) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = p.config.MaxTokens
	}

	// The SDK omits a zero temperature from the request body, which the API
	// then treats as 1.
	temperature := req.Temperature
	if temperature == 0 {
		temperature = math.SmallestNonzeroFloat32
	}

	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	if !req.Prompt.IsChat() {
		resp, err := p.client.CreateCompletion(ctx, openai.CompletionRequest{
			Model:       string(req.Model),
			Prompt:      req.Prompt.Text,
			MaxTokens:   maxTokens,
			Temperature: temperature,
			TopP:        1,
			LogProbs:    1,
		})
		if err != nil {
			return "", fmt.Errorf("OpenAI completion: %w", err)
		}
		if len(resp.Choices) == 0 {
			return "", ErrEmptyResponse
		}
		return strings.TrimSpace(resp.Choices[0].Text), nil
	}

	messages := make([]openai.ChatCompletionMessage, len(req.Prompt.Turns))
	for i, t := range req.Prompt.Turns {
		messages[i] = openai.ChatCompletionMessage{Role: chatRole(t.Role), Content: t.Content}
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       string(req.Model),
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	p.log.WithFields(logrus.Fields{
		"model":  resp.Model,
		"tokens": resp.Usage.TotalTokens,
	}).Debug("chat completion")

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// Embed returns the embedding of text from the configured embedding model
func (p *OpenAIProvider) Embed(ctx context.Context, text string) ([]float64, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(p.config.Model),
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAI embedding: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, ErrEmptyResponse
	}

	vec := make([]float64, len(resp.Data[0].Embedding))
	for i, v := range resp.Data[0].Embedding {
		vec[i] = float64(v)
	}
	return vec, nil
}

func (p *OpenAIProvider) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.config.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.config.Timeout)
}

func chatRole(r model.Role) string {
	switch r {
	case model.RoleSystem:
		return openai.ChatMessageRoleSystem
	case model.RoleAssistant:
		return openai.ChatMessageRoleAssistant
	default:
		return openai.ChatMessageRoleUser
	}
}
