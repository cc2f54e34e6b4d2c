package embeddings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOllamaEmbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embeddings" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req struct {
			Model  string `json:"model"`
			Prompt string `json:"prompt"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if req.Model != "nomic-embed-text" || req.Prompt != "hello" {
			t.Errorf("unexpected request: %+v", req)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"embedding": []float64{0.1, 0.2, 0.3},
		})
	}))
	defer srv.Close()

	p := NewOllama(&Config{Provider: "ollama", Model: "nomic-embed-text", BaseURL: srv.URL})
	v, err := p.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(v) != 3 {
		t.Fatalf("expected 3 floats, got %d", len(v))
	}
	if p.Dim() != 3 {
		t.Fatalf("Dim not recorded: %d", p.Dim())
	}
	if p.ModelID() != "ollama:nomic-embed-text" {
		t.Fatalf("unexpected model id: %s", p.ModelID())
	}
}

func TestOllamaEmbed_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	p := NewOllama(&Config{Provider: "ollama", Model: "missing", BaseURL: srv.URL})
	if _, err := p.Embed(context.Background(), "hello"); err == nil {
		t.Fatalf("expected error for HTTP 404")
	}
}

func TestOllamaEmbed_EmptyText(t *testing.T) {
	p := NewOllama(&Config{Provider: "ollama", Model: "m", BaseURL: "http://localhost:0"})
	if _, err := p.Embed(context.Background(), "  "); err == nil {
		t.Fatalf("expected error for empty text")
	}
}

func TestNewFromConfig(t *testing.T) {
	if _, err := NewFromConfig(&Config{Provider: "carrierpigeon"}); err == nil {
		t.Fatalf("expected error for unsupported provider")
	}
	p, err := NewFromConfig(&Config{Provider: "ollama", Model: "m"})
	if err != nil {
		t.Fatalf("NewFromConfig: %v", err)
	}
	if p.ModelID() != "ollama:m" {
		t.Fatalf("unexpected model id: %s", p.ModelID())
	}
}
