package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/ppiankov/litscreen/internal/model"
)

func nullLogger() *logrus.Logger {
	log, _ := logtest.NewNullLogger()
	return log
}

func newTestOpenAI(t *testing.T, url string) *OpenAIProvider {
	t.Helper()
	provider, err := NewOpenAIProvider(Config{
		APIKey:    "test-key",
		BaseURL:   url,
		Model:     "text-embedding-ada-002",
		Timeout:   5 * time.Second,
		MaxTokens: 1000,
	}, nullLogger())
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}
	return provider
}

func TestOpenAIProvider_Complete_Chat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Expected path /chat/completions, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Expected Authorization header Bearer test-key, got %s", r.Header.Get("Authorization"))
		}

		var req openai.ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "gpt-3.5-turbo" {
			t.Errorf("Unexpected model: %s", req.Model)
		}
		if len(req.Messages) != 3 || req.Messages[0].Role != "system" || req.Messages[2].Role != "assistant" {
			t.Errorf("Unexpected messages: %+v", req.Messages)
		}
		if req.MaxTokens != 1000 {
			t.Errorf("Expected max tokens 1000, got %d", req.MaxTokens)
		}

		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			ID:    "chatcmpl-123",
			Model: "gpt-3.5-turbo",
			Choices: []openai.ChatCompletionChoice{{
				Message: openai.ChatCompletionMessage{
					Role:    "assistant",
					Content: "  Yes, the paper uses cell cultures.\n",
				},
				FinishReason: "stop",
			}},
			Usage: openai.Usage{TotalTokens: 100},
		})
	}))
	defer server.Close()

	provider := newTestOpenAI(t, server.URL)
	answer, err := provider.Complete(context.Background(), CompletionRequest{
		Model: model.ModelGPT35Turbo,
		Prompt: model.ChatPrompt([]model.Turn{
			{Role: model.RoleSystem, Content: "SYS"},
			{Role: model.RoleUser, Content: "Q"},
			{Role: model.RoleAssistant, Content: "A"},
		}),
	})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if answer != "Yes, the paper uses cell cultures." {
		t.Errorf("Unexpected answer: %q", answer)
	}
}

func TestOpenAIProvider_Complete_Legacy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/completions" {
			t.Errorf("Expected path /completions, got %s", r.URL.Path)
		}

		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req["prompt"] != "DEF\nCTX\nQuestion: Q" {
			t.Errorf("Unexpected prompt: %v", req["prompt"])
		}
		if req["logprobs"] != float64(1) || req["top_p"] != float64(1) {
			t.Errorf("Unexpected sampling parameters: %v", req)
		}

		_ = json.NewEncoder(w).Encode(openai.CompletionResponse{
			Model:   "text-davinci-003",
			Choices: []openai.CompletionChoice{{Text: "\n\nNo."}},
		})
	}))
	defer server.Close()

	provider := newTestOpenAI(t, server.URL)
	answer, err := provider.Complete(context.Background(), CompletionRequest{
		Model:  model.ModelDavinci003,
		Prompt: model.TextPrompt("DEF\nCTX\nQuestion: Q"),
	})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if answer != "No." {
		t.Errorf("Unexpected answer: %q", answer)
	}
}

func TestOpenAIProvider_Complete_RateLimitIsRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "Rate limit exceeded", "type": "rate_limit_error"}}`))
	}))
	defer server.Close()

	provider := newTestOpenAI(t, server.URL)
	_, err := provider.Complete(context.Background(), CompletionRequest{
		Model:  model.ModelGPT4,
		Prompt: model.ChatPrompt([]model.Turn{{Role: model.RoleUser, Content: "Q"}}),
	})
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if !Retryable(err) {
		t.Errorf("Expected rate limit error to be retryable: %v", err)
	}
}

func TestOpenAIProvider_Complete_BadRequestIsNotRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": {"message": "context length exceeded", "type": "invalid_request_error"}}`))
	}))
	defer server.Close()

	provider := newTestOpenAI(t, server.URL)
	_, err := provider.Complete(context.Background(), CompletionRequest{
		Model:  model.ModelGPT4,
		Prompt: model.ChatPrompt([]model.Turn{{Role: model.RoleUser, Content: "Q"}}),
	})
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if Retryable(err) {
		t.Errorf("Expected bad request to fail fast: %v", err)
	}
}

func TestOpenAIProvider_Complete_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{ID: "chatcmpl-empty"})
	}))
	defer server.Close()

	provider := newTestOpenAI(t, server.URL)
	_, err := provider.Complete(context.Background(), CompletionRequest{
		Model:  model.ModelGPT4,
		Prompt: model.ChatPrompt([]model.Turn{{Role: model.RoleUser, Content: "Q"}}),
	})
	if !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("Expected ErrEmptyResponse, got %v", err)
	}
}

func TestOpenAIProvider_Embed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("Expected path /embeddings, got %s", r.URL.Path)
		}

		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req["model"] != "text-embedding-ada-002" {
			t.Errorf("Unexpected model: %v", req["model"])
		}

		_ = json.NewEncoder(w).Encode(openai.EmbeddingResponse{
			Object: "list",
			Data: []openai.Embedding{{
				Object:    "embedding",
				Embedding: []float32{0.5, -0.25, 1},
			}},
		})
	}))
	defer server.Close()

	provider := newTestOpenAI(t, server.URL)
	vec, err := provider.Embed(context.Background(), "Paper:\nTitle: T")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	want := []float64{0.5, -0.25, 1}
	if len(vec) != len(want) {
		t.Fatalf("Expected %d dims, got %d", len(want), len(vec))
	}
	for i := range want {
		if vec[i] != want[i] {
			t.Errorf("dim %d: expected %v, got %v", i, want[i], vec[i])
		}
	}
}

func TestNewOpenAIProvider_RequiresKey(t *testing.T) {
	if _, err := NewOpenAIProvider(Config{}, nullLogger()); err == nil {
		t.Fatal("Expected error for missing API key")
	}
}

func TestNewCompleter_UnknownProvider(t *testing.T) {
	if _, err := NewCompleter(Config{Provider: "anthropic"}, nullLogger()); err == nil {
		t.Fatal("Expected error for unknown provider")
	}
	if _, err := NewEmbedder(Config{Provider: "ollama", Model: "nomic-embed-text"}, nullLogger()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
}
