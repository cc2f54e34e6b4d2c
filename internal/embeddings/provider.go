package embeddings

import (
	"context"
	"fmt"

	"docquery/internal/config"
)

// Provider embeds text into a fixed-length float vector.
//
// Implementations must be deterministic for the same input text and model.
type Provider interface {
	ModelID() string
	Dim() int
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Config contains the resolved embeddings configuration.
type Config struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
}

// LoadConfig resolves embeddings config from environment variables first, then
// ~/.docquery/.env, then the config file values passed in.
func LoadConfig(cfg *config.Config) (*Config, error) {
	provider, err := config.GetConfigValue("DOCQUERY_EMBEDDINGS_PROVIDER")
	if err != nil {
		return nil, err
	}
	model, err := config.GetConfigValue("DOCQUERY_EMBEDDINGS_MODEL")
	if err != nil {
		return nil, err
	}
	apiKey, err := config.GetConfigValue("DOCQUERY_EMBEDDINGS_API_KEY")
	if err != nil {
		return nil, err
	}
	baseURL, err := config.GetConfigValue("DOCQUERY_EMBEDDINGS_BASE_URL")
	if err != nil {
		return nil, err
	}

	if provider == "" {
		provider = cfg.EmbedProvider
	}
	if model == "" {
		model = cfg.EmbedModel
	}
	if baseURL == "" {
		switch provider {
		case "ollama":
			baseURL = cfg.OllamaURL
		default:
			baseURL = "https://api.openai.com/v1"
		}
	}

	return &Config{
		Provider: provider,
		Model:    model,
		APIKey:   apiKey,
		BaseURL:  baseURL,
	}, nil
}

// NewFromConfig returns an embeddings provider.
func NewFromConfig(cfg *Config) (Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("embeddings config is nil")
	}
	if cfg.Provider == "" {
		return nil, fmt.Errorf("embeddings provider is not configured (set DOCQUERY_EMBEDDINGS_PROVIDER)")
	}
	switch cfg.Provider {
	case "ollama":
		return NewOllama(cfg), nil
	case "openai":
		return NewOpenAI(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported embeddings provider: %s", cfg.Provider)
	}
}
