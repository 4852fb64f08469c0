package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/urfave/cli/v3"
)

// envPrefix is stripped from environment variables before they are merged
// over the file config, e.g. TRENDSCOPE_BROWSER_HEADLESS=false.
const envPrefix = "TRENDSCOPE_"

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig  `koanf:"server" validate:"required"`
	Browser BrowserConfig `koanf:"browser" validate:"required"`
	Scrape  ScrapeConfig  `koanf:"scrape" validate:"required"`
	Cache   CacheConfig   `koanf:"cache" validate:"required"`
	Region  RegionConfig  `koanf:"region" validate:"required"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Addr         string  `koanf:"addr" validate:"required"`
	APIKey       string  `koanf:"api_key"`
	DefaultLimit int     `koanf:"default_limit" validate:"required,min=1,max=100"`
	RateLimit    float64 `koanf:"rate_limit"`
	RateBurst    int     `koanf:"rate_burst"`
}

// BrowserConfig holds settings for headless browser sessions.
type BrowserConfig struct {
	ChromePath   string        `koanf:"chrome_path" validate:"required"`
	Headless     bool          `koanf:"headless"`
	NoSandbox    bool          `koanf:"no_sandbox"`
	Timeout      time.Duration `koanf:"timeout" validate:"required"`
	NavTimeout   time.Duration `koanf:"nav_timeout" validate:"required"`
	MaxRetries   int           `koanf:"max_retries" validate:"required,min=1"`
	RetryBackoff time.Duration `koanf:"retry_backoff" validate:"required"`
}

// ScrapeConfig drives the navigation orchestrator.
type ScrapeConfig struct {
	TargetURLs    []string      `koanf:"target_urls" validate:"required,min=1,dive,url"`
	StopThreshold int           `koanf:"stop_threshold" validate:"required,min=1"`
	ScrollPasses  int           `koanf:"scroll_passes" validate:"min=0"`
	MinDelay      time.Duration `koanf:"min_delay"`
	MaxDelay      time.Duration `koanf:"max_delay"`
	MaxIntercepts int           `koanf:"max_intercepts" validate:"required,min=1"`
	EnrichDetails bool          `koanf:"enrich_details"`
	EnrichBatch   int           `koanf:"enrich_batch" validate:"min=0,max=16"`
}

// CacheConfig holds result-cache settings.
type CacheConfig struct {
	TTL time.Duration `koanf:"ttl" validate:"required"`
}

// RegionConfig pins the emulated browser identity to one geographic region so
// the target serves region-consistent content.
type RegionConfig struct {
	Name           string   `koanf:"name" validate:"required"`
	AcceptLanguage string   `koanf:"accept_language" validate:"required"`
	Languages      []string `koanf:"languages" validate:"required,min=1"`
	Timezone       string   `koanf:"timezone" validate:"required"`
	Latitude       float64  `koanf:"latitude"`
	Longitude      float64  `koanf:"longitude"`
	UserAgent      string   `koanf:"user_agent"`
}

// Load reads configuration from a YAML file, applies environment overrides,
// and validates the result.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("loading config from %s: %w", path, err)
	}

	// TRENDSCOPE_SERVER_ADDR=:9090 overrides server.addr, and so on.
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "_", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("loading environment overrides: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	if cfg.Scrape.MaxDelay < cfg.Scrape.MinDelay {
		return nil, fmt.Errorf("scrape.max_delay (%s) must be >= scrape.min_delay (%s)",
			cfg.Scrape.MaxDelay, cfg.Scrape.MinDelay)
	}

	return &cfg, nil
}

// ConfigFrom extracts the Config from the CLI command metadata.
func ConfigFrom(cmd *cli.Command) (*Config, error) {
	v, ok := cmd.Root().Metadata["config"]
	if !ok {
		return nil, fmt.Errorf("config not found in command metadata")
	}
	cfg, ok := v.(*Config)
	if !ok {
		return nil, fmt.Errorf("config has unexpected type %T", v)
	}
	return cfg, nil
}
