package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the in-memory representation of ~/.docquery/docquery.yaml.
//
// Every field has a usable default so the tool works without any config file;
// flags override config values at the command layer.
type Config struct {
	DataDir  string `yaml:"data_dir,omitempty"`
	CacheDir string `yaml:"cache_dir,omitempty"`

	EmbedProvider string `yaml:"embed_provider,omitempty"`
	EmbedModel    string `yaml:"embed_model,omitempty"`
	LLMModel      string `yaml:"llm_model,omitempty"`
	OllamaURL     string `yaml:"ollama_url,omitempty"`

	TopK     int     `yaml:"top_k,omitempty"`
	MinScore float64 `yaml:"min_score,omitempty"`
}

// DocqueryDir returns the absolute path to ~/.docquery/.
func DocqueryDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".docquery"), nil
}

// ConfigPath returns the absolute path to ~/.docquery/docquery.yaml.
func ConfigPath() (string, error) {
	dir, err := DocqueryDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "docquery.yaml"), nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(p string) (string, error) {
	if !strings.HasPrefix(p, "~") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot expand ~: %w", err)
	}
	return filepath.Join(home, p[1:]), nil
}

// DefaultConfig returns the configuration used when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		DataDir:       "data",
		CacheDir:      ".index_cache",
		EmbedProvider: "ollama",
		EmbedModel:    "nomic-embed-text",
		LLMModel:      "llama3.1",
		OllamaURL:     "http://localhost:11434",
		TopK:          4,
	}
}

// Load reads ~/.docquery/docquery.yaml, falling back to defaults when the file
// does not exist. Present fields override defaults; missing fields keep them.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("cannot read config %s: %w", path, err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
	}
	// Expand ~ in paths at load time.
	if cfg.DataDir, err = ExpandPath(cfg.DataDir); err != nil {
		return nil, err
	}
	if cfg.CacheDir, err = ExpandPath(cfg.CacheDir); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save marshals cfg and writes it to ~/.docquery/docquery.yaml.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cannot create config dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("cannot write config %s: %w", path, err)
	}
	return nil
}
