// Package config loads trendscope's settings from ~/.trendscope/config.yaml,
// falling back to defaults and letting environment variables override both.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment overrides.
const (
	EnvAPIURL         = "TRENDSCOPE_API_URL"
	EnvProxyURL       = "TRENDSCOPE_PROXY_URL"
	EnvAvatarTemplate = "TRENDSCOPE_AVATAR_TEMPLATE"
	EnvLogLevel       = "TRENDSCOPE_LOG_LEVEL"
)

// Config is the persisted configuration.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Media   MediaConfig   `yaml:"media"`
	History HistoryConfig `yaml:"history"`
	Log     LogConfig     `yaml:"log"`

	// DataDir holds the log, event and history files. Empty means ~/.trendscope.
	DataDir string `yaml:"data_dir,omitempty"`
}

// APIConfig points at the analysis backend.
type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
	RPS     float64       `yaml:"rps"` // client-side request limit; 0 disables it
}

// MediaConfig controls how post images and avatars are addressed.
type MediaConfig struct {
	ProxyBase        string `yaml:"proxy_base,omitempty"` // empty means the API base URL
	AvatarTemplate   string `yaml:"avatar_template"`      // "{username}" is substituted
	FallbackImage    string `yaml:"fallback_image"`
	UnavailableImage string `yaml:"unavailable_image"`
}

// HistoryConfig controls the prompt history.
type HistoryConfig struct {
	Enabled bool `yaml:"enabled"`
	Size    int  `yaml:"size"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the settings used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "http://localhost:5000",
			Timeout: 30 * time.Second,
			RPS:     2,
		},
		Media: MediaConfig{
			AvatarTemplate:   "https://ui-avatars.com/api/?name={username}&background=random",
			FallbackImage:    "https://via.placeholder.com/400x400?text=No+Image",
			UnavailableImage: "https://via.placeholder.com/400x400?text=Image+Unavailable",
		},
		History: HistoryConfig{Enabled: true, Size: 50},
		Log:     LogConfig{Level: "info"},
	}
}

// DefaultDataDir returns ~/.trendscope, or ./.trendscope without a home.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".trendscope"
	}
	return filepath.Join(home, ".trendscope")
}

// DefaultPath returns the config file location.
func DefaultPath() string {
	return filepath.Join(DefaultDataDir(), "config.yaml")
}

// Load reads path. A missing file yields defaults. Fields absent from the
// file keep their defaults. Environment overrides are applied last.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	cfg.ApplyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config as YAML, creating the parent directory.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ApplyEnv overrides fields from the environment. lookup is os.LookupEnv
// outside tests. Empty values are ignored.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	set(EnvAPIURL, &c.API.BaseURL)
	set(EnvProxyURL, &c.Media.ProxyBase)
	set(EnvAvatarTemplate, &c.Media.AvatarTemplate)
	set(EnvLogLevel, &c.Log.Level)
}

// Validate rejects settings the clients cannot work with and fills
// zero values that have an obvious default.
func (c *Config) Validate() error {
	c.API.BaseURL = strings.TrimRight(c.API.BaseURL, "/")
	if !strings.HasPrefix(c.API.BaseURL, "http://") && !strings.HasPrefix(c.API.BaseURL, "https://") {
		return fmt.Errorf("config: api.base_url %q must be an http(s) URL", c.API.BaseURL)
	}
	if c.API.Timeout <= 0 {
		c.API.Timeout = DefaultConfig().API.Timeout
	}
	if c.API.RPS < 0 {
		return fmt.Errorf("config: api.rps must not be negative")
	}
	if c.History.Size <= 0 {
		c.History.Size = DefaultConfig().History.Size
	}
	if c.DataDir == "" {
		c.DataDir = DefaultDataDir()
	}
	return nil
}
