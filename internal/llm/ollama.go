package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ppiankov/litscreen/internal/model"
)

func newProxyFunc(httpProxy, httpsProxy string) func(*http.Request) (*url.URL, error) {
	if httpProxy == "" && httpsProxy == "" {
		return http.ProxyFromEnvironment
	}

	return func(req *http.Request) (*url.URL, error) {
		if req.URL.Scheme == "https" && httpsProxy != "" {
			return url.Parse(httpsProxy)
		}
		if httpProxy != "" {
			return url.Parse(httpProxy)
		}
		return http.ProxyFromEnvironment(req)
	}
}

func newProxyClient(config Config) *http.Client {
	return &http.Client{
		Timeout: config.Timeout,
		Transport: &http.Transport{
			Proxy: newProxyFunc(config.HTTPProxy, config.HTTPSProxy),
		},
	}
}

// OllamaProvider embeds text and completes prompts with a local Ollama server
type OllamaProvider struct {
	baseURL    string
	httpClient *http.Client
	config     Config
	log        logrus.FieldLogger
}

type ollamaGenerateRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	System  string        `json:"system,omitempty"`
	Options ollamaOptions `json:"options,omitempty"`
}

type ollamaOptions struct {
	Temperature float32 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"` // Max tokens
}

type ollamaGenerateResponse struct {
	Model           string `json:"model"`
	Response        string `json:"response"`
	Done            bool   `json:"done"`
	PromptEvalCount int    `json:"prompt_eval_count,omitempty"`
	EvalCount       int    `json:"eval_count,omitempty"`
}

type ollamaEmbeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbeddingResponse struct {
	Embedding []float64 `json:"embedding"`
}

type ollamaError struct {
	Error string `json:"error"`
}

// NewOllamaProvider creates a new Ollama provider
func NewOllamaProvider(config Config, log logrus.FieldLogger) (*OllamaProvider, error) {
	if config.Model == "" {
		return nil, fmt.Errorf("ollama model must be specified (e.g., nomic-embed-text, llama3.1:8b)")
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if config.Timeout == 0 {
		config.Timeout = 60 * time.Second
	}

	return &OllamaProvider{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: newProxyClient(config),
		config:     config,
		log:        log,
	}, nil
}

// Name returns the provider name
func (p *OllamaProvider) Name() string {
	return "ollama"
}

// IsAvailable checks that the server answers
func (p *OllamaProvider) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/api/tags", nil)
	if err != nil {
		p.log.WithError(err).Warn("Ollama availability check failed")
		return false
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.log.WithError(err).WithField("base_url", p.baseURL).Warn("Ollama availability check failed")
		return false
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		p.log.WithField("status", resp.StatusCode).Warn("Ollama availability check failed")
		return false
	}
	return true
}

// Complete sends the prompt to /api/generate. Chat prompts are flattened and
// their system turn moves to the system field.
func (p *OllamaProvider) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = p.config.MaxTokens
	}

	apiReq := ollamaGenerateRequest{
		Model:   p.config.Model,
		Prompt:  req.Prompt.Text,
		Options: ollamaOptions{Temperature: req.Temperature, NumPredict: maxTokens},
	}
	if req.Prompt.IsChat() {
		turns := req.Prompt.Turns
		if len(turns) > 0 && turns[0].Role == model.RoleSystem {
			apiReq.System = turns[0].Content
			turns = turns[1:]
		}
		apiReq.Prompt = model.Flatten(turns)
	}

	var resp ollamaGenerateResponse
	if err := p.post(ctx, "/api/generate", apiReq, &resp); err != nil {
		return "", fmt.Errorf("ollama generate: %w", err)
	}

	p.log.WithFields(logrus.Fields{
		"model":  resp.Model,
		"tokens": resp.PromptEvalCount + resp.EvalCount,
	}).Debug("ollama completion")

	return strings.TrimSpace(resp.Response), nil
}

// Embed returns the embedding of text from /api/embeddings
func (p *OllamaProvider) Embed(ctx context.Context, text string) ([]float64, error) {
	var resp ollamaEmbeddingResponse
	if err := p.post(ctx, "/api/embeddings", ollamaEmbeddingRequest{Model: p.config.Model, Prompt: text}, &resp); err != nil {
		return nil, fmt.Errorf("ollama embeddings: %w", err)
	}
	if len(resp.Embedding) == 0 {
		return nil, ErrEmptyResponse
	}
	return resp.Embedding, nil
}

func (p *OllamaProvider) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		var apiErr ollamaError
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Error != "" {
			return &StatusError{StatusCode: httpResp.StatusCode, Message: apiErr.Error}
		}
		return &StatusError{StatusCode: httpResp.StatusCode, Message: string(respBody)}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}
