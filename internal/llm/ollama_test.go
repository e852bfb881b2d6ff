package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/litscreen/internal/model"
)

func newTestOllama(t *testing.T, url string) *OllamaProvider {
	t.Helper()
	provider, err := NewOllamaProvider(Config{
		BaseURL: url,
		Model:   "nomic-embed-text",
		Timeout: 5 * time.Second,
	}, nullLogger())
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}
	return provider
}

func TestOllamaProvider_Embed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embeddings" {
			t.Errorf("Expected path /api/embeddings, got %s", r.URL.Path)
		}
		var req ollamaEmbeddingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "nomic-embed-text" || req.Prompt != "abstract" {
			t.Errorf("Unexpected request: %+v", req)
		}
		_ = json.NewEncoder(w).Encode(ollamaEmbeddingResponse{Embedding: []float64{1, 2, 3}})
	}))
	defer server.Close()

	vec, err := newTestOllama(t, server.URL).Embed(context.Background(), "abstract")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if len(vec) != 3 || vec[2] != 3 {
		t.Errorf("Unexpected vector: %v", vec)
	}
}

func TestOllamaProvider_Complete_MovesSystemTurn(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("Expected path /api/generate, got %s", r.URL.Path)
		}
		var req ollamaGenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.System != "SYS" {
			t.Errorf("Expected system SYS, got %q", req.System)
		}
		if req.Prompt != "example\nYes.\ntest" {
			t.Errorf("Unexpected prompt: %q", req.Prompt)
		}
		if req.Stream {
			t.Error("Expected non-streaming request")
		}
		_ = json.NewEncoder(w).Encode(ollamaGenerateResponse{Model: "nomic-embed-text", Response: " No. ", Done: true})
	}))
	defer server.Close()

	answer, err := newTestOllama(t, server.URL).Complete(context.Background(), CompletionRequest{
		Model: model.ModelGPT4,
		Prompt: model.ChatPrompt([]model.Turn{
			{Role: model.RoleSystem, Content: "SYS"},
			{Role: model.RoleUser, Content: "example"},
			{Role: model.RoleAssistant, Content: "Yes."},
			{Role: model.RoleUser, Content: "test"},
		}),
	})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if answer != "No." {
		t.Errorf("Unexpected answer: %q", answer)
	}
}

func TestOllamaProvider_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error": "model is loading"}`))
	}))
	defer server.Close()

	_, err := newTestOllama(t, server.URL).Embed(context.Background(), "abstract")
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if !strings.Contains(err.Error(), "model is loading") {
		t.Errorf("Expected error to contain API message, got %v", err)
	}
	if !Retryable(err) {
		t.Errorf("Expected 503 to be retryable: %v", err)
	}
}

func TestOllamaProvider_IsAvailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"models": []}`))
	}))
	defer server.Close()

	if !newTestOllama(t, server.URL).IsAvailable(context.Background()) {
		t.Error("Expected server to be available")
	}

	server.Close()
	if newTestOllama(t, server.URL).IsAvailable(context.Background()) {
		t.Error("Expected closed server to be unavailable")
	}
}

func TestNewOllamaProvider_RequiresModel(t *testing.T) {
	if _, err := NewOllamaProvider(Config{}, nullLogger()); err == nil {
		t.Fatal("Expected error for missing model")
	}
}
