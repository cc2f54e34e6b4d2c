package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type ollamaProvider struct {
	model   string
	baseURL string
	client  *http.Client
	dim     int
}

// NewOllama constructs an embeddings provider backed by a local Ollama server.
//
// It uses the REST endpoint:
//
//	POST {baseURL}/api/embeddings
//
// with JSON body:
//
//	{"model": "...", "prompt": "..."}
func NewOllama(cfg *Config) Provider {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return &ollamaProvider{
		model:   cfg.Model,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 120 * time.Second},
		dim:     0,
	}
}

func (p *ollamaProvider) ModelID() string {
	return "ollama:" + p.model
}

func (p *ollamaProvider) Dim() int {
	return p.dim
}

func (p *ollamaProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if p.model == "" {
		return nil, fmt.Errorf("embeddings model is not configured (set DOCQUERY_EMBEDDINGS_MODEL)")
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("cannot embed empty text")
	}

	reqBody := map[string]any{
		"model":  p.model,
		"prompt": text,
	}
	b, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/embeddings", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("embeddings request failed: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed struct {
		Embedding []float64 `json:"embedding"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("cannot parse embeddings response: %w", err)
	}
	if len(parsed.Embedding) == 0 {
		return nil, fmt.Errorf("embeddings response missing embedding")
	}

	out := make([]float32, len(parsed.Embedding))
	for i, v := range parsed.Embedding {
		out[i] = float32(v)
	}
	p.dim = len(out)
	return out, nil
}
