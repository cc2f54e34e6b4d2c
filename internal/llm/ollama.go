package llm

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

// OllamaOptions configures the Ollama client.
type OllamaOptions struct {
	BaseURL string
	Model   string
	// Timeout bounds a single generate call. Local models can be slow on
	// first load, so the default is generous.
	Timeout time.Duration
	// ContextWindow is passed through as the num_ctx model option when > 0.
	ContextWindow int
}

type ollamaClient struct {
	baseURL string
	model   string
	numCtx  int
	client  *http.Client
}

// NewOllama returns a Client backed by a local Ollama server's
// POST {baseURL}/api/generate endpoint (non-streaming).
func NewOllama(opts OllamaOptions) Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 360 * time.Second
	}
	return &ollamaClient{
		baseURL: baseURL,
		model:   opts.Model,
		numCtx:  opts.ContextWindow,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *ollamaClient) ModelID() string {
	return "ollama:" + c.model
}

func (c *ollamaClient) Complete(ctx context.Context, prompt string) (string, error) {
	if c.model == "" {
		return "", fmt.Errorf("llm model is not configured")
	}
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("cannot complete empty prompt")
	}

	reqBody := map[string]any{
		"model":  c.model,
		"prompt": prompt,
		"stream": false,
	}
	if c.numCtx > 0 {
		reqBody["options"] = map[string]any{"num_ctx": c.numCtx}
	}
	b, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("generate request failed: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("cannot parse generate response: %w", err)
	}
	if parsed.Response == "" {
		return "", fmt.Errorf("generate response missing response text")
	}
	return parsed.Response, nil
}
