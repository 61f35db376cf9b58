// Package config loads and saves pageguard configuration from
// .pageguard/config.json. The file is the single source of truth;
// environment variables override individual keys so CI and one-off runs
// never need to write the file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// UserConfig holds all pageguard configuration.
//
// Supported models by provider:
//   - gemini: gemini-2.5-flash (default), gemini-2.5-pro
//   - openai: gpt-4o (default), gpt-4o-mini, gpt-4-turbo
type UserConfig struct {
	// Provider selection ("gemini" or "openai").
	Provider string `json:"provider,omitempty"`

	// API keys per provider.
	GeminiAPIKey string `json:"gemini_api_key,omitempty"`
	OpenAIAPIKey string `json:"openai_api_key,omitempty"`

	// Optional model override.
	Model string `json:"model,omitempty"`

	// Scraping collaborator credential. When empty, URL-only documents fall
	// back to the local browser scraper if one is enabled.
	FirecrawlAPIKey string `json:"firecrawl_api_key,omitempty"`

	// UseLocalBrowser enables the go-rod scraper as a fallback when no
	// firecrawl key is configured.
	UseLocalBrowser bool `json:"use_local_browser,omitempty"`

	// Storage holds remote database settings. Absence of both fields means
	// degraded (local-only) mode.
	Storage StorageConfig `json:"storage,omitempty"`

	// Logging controls the categorized debug logger.
	Logging LoggingConfig `json:"logging,omitempty"`
}

// StorageConfig points at the remote database collaborator.
type StorageConfig struct {
	RemoteURL string `json:"remote_url,omitempty"`
	RemoteKey string `json:"remote_key,omitempty"`

	// LocalPath is the SQLite file for degraded mode. Defaults to
	// .pageguard/pageguard.db under the workspace.
	LocalPath string `json:"local_path,omitempty"`

	// Capacity bounds for local mode. Zero means the defaults (50 history
	// records, 200 log records). Remote mode is never capped.
	HistoryCap int `json:"history_cap,omitempty"`
	LogCap     int `json:"log_cap,omitempty"`
}

// RemoteConfigured reports whether a remote backend is configured at all.
func (s StorageConfig) RemoteConfigured() bool {
	return s.RemoteURL != "" && s.RemoteKey != ""
}

// LoggingConfig mirrors internal/logging's expectations.
type LoggingConfig struct {
	DebugMode bool   `json:"debug_mode,omitempty"`
	Level     string `json:"level,omitempty"`
}

// DefaultPath returns the default config location under the workspace.
func DefaultPath(workspace string) string {
	return filepath.Join(workspace, ".pageguard", "config.json")
}

// Load reads the config file, then applies env overrides. A missing file is
// not an error; env-only operation is supported.
func Load(path string) (*UserConfig, error) {
	cfg := &UserConfig{}
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the config file, creating the directory if needed.
func (c *UserConfig) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (c *UserConfig) applyEnvOverrides() {
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.GeminiAPIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.OpenAIAPIKey = v
	}
	if v := os.Getenv("FIRECRAWL_API_KEY"); v != "" {
		c.FirecrawlAPIKey = v
	}
	if v := os.Getenv("PAGEGUARD_PROVIDER"); v != "" {
		c.Provider = v
	}
	if v := os.Getenv("PAGEGUARD_MODEL"); v != "" {
		c.Model = v
	}
	if v := os.Getenv("PAGEGUARD_REMOTE_URL"); v != "" {
		c.Storage.RemoteURL = v
	}
	if v := os.Getenv("PAGEGUARD_REMOTE_KEY"); v != "" {
		c.Storage.RemoteKey = v
	}
}

// GetActiveProvider resolves the provider and its API key.
// Priority: explicit Provider setting, then gemini, then openai.
// Returns empty strings when no usable credential exists.
func (c *UserConfig) GetActiveProvider() (provider, apiKey string) {
	switch c.Provider {
	case "gemini":
		return "gemini", c.GeminiAPIKey
	case "openai":
		return "openai", c.OpenAIAPIKey
	}
	if c.GeminiAPIKey != "" {
		return "gemini", c.GeminiAPIKey
	}
	if c.OpenAIAPIKey != "" {
		return "openai", c.OpenAIAPIKey
	}
	return "", ""
}
