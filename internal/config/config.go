package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/robfig/cron/v3"
)

// Config holds all application configuration.
type Config struct {
	Server ServerConfig `toml:"server"`
	News   NewsConfig   `toml:"news"`
	Fetch  FetchConfig  `toml:"fetch"`
	AI     AIConfig     `toml:"ai"`
	Cache  CacheConfig  `toml:"cache"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host                   string   `toml:"host"`
	Port                   int      `toml:"port"`
	AllowedOrigins         []string `toml:"allowed_origins"`
	ShutdownTimeoutSeconds int      `toml:"shutdown_timeout_seconds"`
}

// NewsConfig selects and configures the upstream news search.
type NewsConfig struct {
	Source         string `toml:"source"` // "newsapi" | "google_rss"; empty picks by api_key
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Language       string `toml:"language"`
	PageSize       int    `toml:"page_size"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// FetchConfig controls article fetching during a pipeline run.
type FetchConfig struct {
	Concurrency       int `toml:"concurrency"`
	TimeoutSeconds    int `toml:"timeout_seconds"`
	RunTimeoutSeconds int `toml:"run_timeout_seconds"`
}

// AIConfig holds summarizer settings.
type AIConfig struct {
	Provider      string `toml:"provider"`
	APIKey        string `toml:"api_key"`
	Model         string `toml:"model"`
	FallbackModel string `toml:"fallback_model"`
	BaseURL       string `toml:"base_url"`
	MaxConcurrent int    `toml:"max_concurrent"`
}

// CacheConfig controls the result cache.
type CacheConfig struct {
	FreshnessHours int    `toml:"freshness_hours"`
	SweepSchedule  string `toml:"sweep_schedule"`
}

// News sources.
const (
	SourceNewsAPI   = "newsapi"
	SourceGoogleRSS = "google_rss"
)

const defaultConfigContent = `[server]
host = "localhost"
port = 8080
allowed_origins = ["*"]
shutdown_timeout_seconds = 10

[news]
source = ""                       # "newsapi", "google_rss", or empty to pick by api_key
api_key = ""                      # NewsAPI key (or set NEWS_API_KEY env var)
language = "en"
page_size = 100
timeout_seconds = 15

[fetch]
concurrency = 5
timeout_seconds = 10
run_timeout_seconds = 120

[ai]
provider = "extractive"           # "extractive", "anthropic" or "openai"
api_key = ""                      # Your API key (or set AI_API_KEY env var)
model = ""                        # Empty uses the provider default
fallback_model = ""               # Used when the provider is overloaded
max_concurrent = 1

[cache]
freshness_hours = 24
sweep_schedule = "@every 24h"
`

// Load reads and parses the TOML config from the given path. If the file does
// not exist, it creates a default config file at that path. Environment
// variables override values from the file with highest priority.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := createDefault(path); err != nil {
			return nil, fmt.Errorf("creating default config: %w", err)
		}
		slog.Info("created default config file", "path", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Validate explicitly-set values before applying defaults, so that
	// explicitly writing "port = 0" is an error rather than silently
	// being replaced with the default.
	if err := validateExplicit(&cfg, md); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)
	resolveNewsSource(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// createDefault writes the default config content to the given path,
// creating any parent directories as needed.
func createDefault(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultConfigContent), 0o644); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	return nil
}

// validateExplicit checks values that were explicitly set in the TOML file.
// This catches cases like "port = 0" which would otherwise be silently
// replaced by the default value.
func validateExplicit(cfg *Config, md toml.MetaData) error {
	if md.IsDefined("server", "port") {
		if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
			return fmt.Errorf("invalid server.port %d: must be between 1 and 65535", cfg.Server.Port)
		}
	}
	if md.IsDefined("news", "page_size") {
		if cfg.News.PageSize < 1 || cfg.News.PageSize > 100 {
			return fmt.Errorf("invalid news.page_size %d: must be between 1 and 100", cfg.News.PageSize)
		}
	}
	if md.IsDefined("fetch", "concurrency") {
		if cfg.Fetch.Concurrency < 1 {
			return fmt.Errorf("invalid fetch.concurrency %d: must be >= 1", cfg.Fetch.Concurrency)
		}
	}
	if md.IsDefined("ai", "max_concurrent") {
		if cfg.AI.MaxConcurrent < 1 {
			return fmt.Errorf("invalid ai.max_concurrent %d: must be >= 1", cfg.AI.MaxConcurrent)
		}
	}
	if md.IsDefined("cache", "freshness_hours") {
		if cfg.Cache.FreshnessHours < 1 {
			return fmt.Errorf("invalid cache.freshness_hours %d: must be >= 1", cfg.Cache.FreshnessHours)
		}
	}
	return nil
}

// applyDefaults sets default values for any zero-valued fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"*"}
	}
	if cfg.Server.ShutdownTimeoutSeconds == 0 {
		cfg.Server.ShutdownTimeoutSeconds = 10
	}

	if cfg.News.Language == "" {
		cfg.News.Language = "en"
	}
	if cfg.News.PageSize == 0 {
		cfg.News.PageSize = 100
	}
	if cfg.News.TimeoutSeconds == 0 {
		cfg.News.TimeoutSeconds = 15
	}

	if cfg.Fetch.Concurrency == 0 {
		cfg.Fetch.Concurrency = 5
	}
	if cfg.Fetch.TimeoutSeconds == 0 {
		cfg.Fetch.TimeoutSeconds = 10
	}
	if cfg.Fetch.RunTimeoutSeconds == 0 {
		cfg.Fetch.RunTimeoutSeconds = 120
	}

	if cfg.AI.Provider == "" {
		cfg.AI.Provider = "extractive"
	}
	switch cfg.AI.Provider {
	case "anthropic":
		if cfg.AI.Model == "" {
			cfg.AI.Model = "claude-sonnet-4-5"
		}
		if cfg.AI.FallbackModel == "" {
			cfg.AI.FallbackModel = "claude-haiku-4-5"
		}
	case "openai":
		if cfg.AI.Model == "" {
			cfg.AI.Model = "gpt-4o"
		}
		if cfg.AI.FallbackModel == "" {
			cfg.AI.FallbackModel = "gpt-4o-mini"
		}
	}
	if cfg.AI.MaxConcurrent == 0 {
		cfg.AI.MaxConcurrent = 1
	}

	if cfg.Cache.FreshnessHours == 0 {
		cfg.Cache.FreshnessHours = 24
	}
	if cfg.Cache.SweepSchedule == "" {
		cfg.Cache.SweepSchedule = "@every 24h"
	}
}

// applyEnvOverrides applies environment variable overrides. Environment
// variables take highest priority over config file values.
//
// news.api_key comes from NEWS_API_KEY.
//
// Priority for ai.api_key:
//  1. AI_API_KEY (generic, highest)
//  2. ANTHROPIC_API_KEY (when provider is "anthropic")
//  3. OPENAI_API_KEY (when provider is "openai")
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("NEWS_API_KEY"); v != "" {
		cfg.News.APIKey = v
	}

	// Apply provider-specific env var first (lower priority).
	switch cfg.AI.Provider {
	case "anthropic":
		if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
			cfg.AI.APIKey = v
		}
	case "openai":
		if v := os.Getenv("OPENAI_API_KEY"); v != "" {
			cfg.AI.APIKey = v
		}
	}

	// AI_API_KEY overrides everything (highest priority).
	if v := os.Getenv("AI_API_KEY"); v != "" {
		cfg.AI.APIKey = v
	}
}

// resolveNewsSource picks NewsAPI when a key is available and Google News
// RSS otherwise, unless news.source names one explicitly.
func resolveNewsSource(cfg *Config) {
	if cfg.News.Source != "" {
		return
	}
	if cfg.News.APIKey != "" {
		cfg.News.Source = SourceNewsAPI
	} else {
		cfg.News.Source = SourceGoogleRSS
	}
}

// validate checks that configuration values are within acceptable ranges.
func validate(cfg *Config) error {
	switch cfg.AI.Provider {
	case "anthropic", "openai", "extractive":
		// valid
	default:
		return fmt.Errorf("invalid ai.provider %q: must be \"extractive\", \"anthropic\" or \"openai\"", cfg.AI.Provider)
	}

	switch cfg.News.Source {
	case SourceNewsAPI:
		if cfg.News.APIKey == "" {
			return errors.New("news.api_key is required when news.source is \"newsapi\": set it in the config file or via NEWS_API_KEY")
		}
	case SourceGoogleRSS:
		// valid
	default:
		return fmt.Errorf("invalid news.source %q: must be \"newsapi\" or \"google_rss\"", cfg.News.Source)
	}

	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d: must be between 1 and 65535", cfg.Server.Port)
	}

	if _, err := cron.ParseStandard(cfg.Cache.SweepSchedule); err != nil {
		return fmt.Errorf("invalid cache.sweep_schedule %q: %w", cfg.Cache.SweepSchedule, err)
	}

	if cfg.AI.Provider != "extractive" && cfg.AI.APIKey == "" {
		slog.Warn("ai.api_key is empty: set it in the config file or via AI_API_KEY environment variable; falling back to extractive summaries")
	}

	return nil
}

// Addr returns the host:port the server listens on.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ShutdownTimeout is how long in-flight requests get on shutdown.
func (s ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(s.ShutdownTimeoutSeconds) * time.Second
}

// Timeout bounds one upstream search call.
func (n NewsConfig) Timeout() time.Duration {
	return time.Duration(n.TimeoutSeconds) * time.Second
}

// Timeout bounds one article fetch.
func (f FetchConfig) Timeout() time.Duration {
	return time.Duration(f.TimeoutSeconds) * time.Second
}

// RunTimeout bounds one pipeline execution.
func (f FetchConfig) RunTimeout() time.Duration {
	return time.Duration(f.RunTimeoutSeconds) * time.Second
}

// Freshness is how long a cached result is served.
func (c CacheConfig) Freshness() time.Duration {
	return time.Duration(c.FreshnessHours) * time.Hour
}
