package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the agent configuration. Values come from an optional TOML file
// and are then overridden by environment variables.
type Config struct {
	AppEnv      string            `toml:"app_env"`
	Port        string            `toml:"port"`
	UIOrigins   []string          `toml:"ui_origins"`
	Marketplace MarketplaceConfig `toml:"marketplace"`
	Cache       CacheConfig       `toml:"cache"`
	Database    DatabaseConfig    `toml:"database"`
	Media       MediaConfig       `toml:"media"`
	Warmup      WarmupConfig      `toml:"warmup"`
	Drafts      DraftsConfig      `toml:"drafts"`
}

// MarketplaceConfig points the providers at the remote REST API.
type MarketplaceConfig struct {
	BaseURL        string        `toml:"base_url"`
	Timeout        time.Duration `toml:"timeout"`
	RetryCount     int           `toml:"retry_count"`
	RequestsPerSec float64       `toml:"requests_per_sec"`
	Burst          int           `toml:"burst"`
}

// CacheConfig selects the query cache backend.
// This uses a tagged union pattern - Backend determines which other fields are relevant.
type CacheConfig struct {
	Backend       string        `toml:"backend"` // "memory" (default) or "redis"
	ReferenceTTL  time.Duration `toml:"reference_ttl"`
	ListingTTL    time.Duration `toml:"listing_ttl"`
	RedisHost     string        `toml:"redis_host,omitempty"`
	RedisPort     string        `toml:"redis_port,omitempty"`
	RedisPassword string        `toml:"redis_password,omitempty"`
	RedisDB       int           `toml:"redis_db,omitempty"`
}

// DatabaseConfig holds the draft store and audit log connection.
type DatabaseConfig struct {
	Driver string `toml:"driver"` // "sqlite" (default) or "postgres"
	DSN    string `toml:"dsn"`
}

// MediaConfig controls image preparation before upload.
type MediaConfig struct {
	MaxDimension int `toml:"max_dimension"`
	JPEGQuality  int `toml:"jpeg_quality"`
}

// WarmupConfig controls the reference data warm-up worker.
type WarmupConfig struct {
	Enabled  bool          `toml:"enabled"`
	Interval time.Duration `toml:"interval"`
}

// DraftsConfig controls periodic autosave and cleanup of stale drafts.
type DraftsConfig struct {
	AutosaveInterval time.Duration `toml:"autosave_interval"`
	Retention        time.Duration `toml:"retention"`
	CleanupInterval  time.Duration `toml:"cleanup_interval"`
}

// Default returns the configuration used when nothing else is provided.
func Default() *Config {
	return &Config{
		AppEnv:    "development",
		Port:      "8080",
		UIOrigins: []string{"http://localhost:5173", "http://localhost:8081"},
		Marketplace: MarketplaceConfig{
			BaseURL:        "https://api.autobazar.example/v1",
			Timeout:        15 * time.Second,
			RetryCount:     2,
			RequestsPerSec: 10,
			Burst:          20,
		},
		Cache: CacheConfig{
			Backend:      "memory",
			ReferenceTTL: 24 * time.Hour,
			ListingTTL:   5 * time.Minute,
			RedisHost:    "localhost",
			RedisPort:    "6379",
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "listing-editor.db",
		},
		Media: MediaConfig{
			MaxDimension: 1920,
			JPEGQuality:  80,
		},
		Warmup: WarmupConfig{
			Enabled:  true,
			Interval: 30 * time.Minute,
		},
		Drafts: DraftsConfig{
			AutosaveInterval: 30 * time.Second,
			Retention:        30 * 24 * time.Hour,
			CleanupInterval:  6 * time.Hour,
		},
	}
}

// Read decodes a Config from the provided reader on top of the defaults.
func Read(r io.Reader) (*Config, error) {
	cfg := Default()
	if _, err := toml.NewDecoder(r).Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// Load reads the TOML file named by LISTING_EDITOR_CONFIG (if set), applies
// environment overrides and validates the result.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("LISTING_EDITOR_CONFIG"); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		defer f.Close()

		cfg, err = Read(f)
		if err != nil {
			return nil, fmt.Errorf("reading config from %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.AppEnv, "APP_ENV")
	setString(&c.Port, "PORT")
	setString(&c.Marketplace.BaseURL, "MARKETPLACE_API_BASE_URL")
	setString(&c.Cache.Backend, "CACHE_BACKEND")
	setString(&c.Cache.RedisHost, "REDIS_HOST")
	setString(&c.Cache.RedisPort, "REDIS_PORT")
	setString(&c.Cache.RedisPassword, "REDIS_PASSWORD")
	setString(&c.Database.Driver, "DB_DRIVER")
	setString(&c.Database.DSN, "DB_DSN")

	if v := os.Getenv("MARKETPLACE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid MARKETPLACE_TIMEOUT %q: %w", v, err)
		}
		c.Marketplace.Timeout = d
	}
	if v := os.Getenv("REFERENCE_CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid REFERENCE_CACHE_TTL %q: %w", v, err)
		}
		c.Cache.ReferenceTTL = d
	}
	if v := os.Getenv("DRAFT_RETENTION"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid DRAFT_RETENTION %q: %w", v, err)
		}
		c.Drafts.Retention = d
	}
	if v := os.Getenv("WARMUP_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid WARMUP_ENABLED %q: %w", v, err)
		}
		c.Warmup.Enabled = b
	}
	return nil
}

// Validate checks values that would otherwise fail much later.
func (c *Config) Validate() error {
	if c.Marketplace.BaseURL == "" {
		return errors.New("marketplace base_url is required")
	}
	switch c.Cache.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("unsupported cache backend %q", c.Cache.Backend)
	}
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Media.JPEGQuality < 1 || c.Media.JPEGQuality > 100 {
		return fmt.Errorf("jpeg_quality must be in 1..100, got %d", c.Media.JPEGQuality)
	}
	return nil
}

// RedisAddr returns host:port for the redis cache backend.
func (c *CacheConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
