// Package config loads application configuration from environment variables.
// All variables use the LEARN_ prefix.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"golang.org/x/text/language"
)

// Prefix is prepended to every variable name.
const Prefix = "LEARN_"

// DefaultCourseKey obfuscates course.bin when no key is configured. It is
// not a secret.
const DefaultCourseKey = "pai-courseware/v1"

// Progress backends.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Config holds all application configuration.
type Config struct {
	// DataDir overrides the per-user application directory.
	DataDir   string `env:"DATA_DIR"`
	CourseKey string `env:"COURSE_KEY" envDefault:"pai-courseware/v1"`
	// SeedDir replaces the bundled seed with course.json or course.yaml
	// from this directory.
	SeedDir string `env:"SEED_DIR"`
	Locale  string `env:"LOCALE" envDefault:"en"`

	Progress ProgressConfig `envPrefix:"PROGRESS_"`
	SQLite   SQLiteConfig   `envPrefix:"SQLITE_"`
	Database DatabaseConfig `envPrefix:"DATABASE_"`
	Cache    CacheConfig    `envPrefix:"CACHE_"`
	Log      LogConfig      `envPrefix:"LOG_"`
}

// ProgressConfig selects where study progress is kept.
type ProgressConfig struct {
	Backend string `env:"BACKEND" envDefault:"sqlite"`
}

// SQLiteConfig holds the local database location. An empty path keeps the
// database next to course.bin.
type SQLiteConfig struct {
	Path string `env:"PATH"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL      string `env:"URL"`
	MaxConns int    `env:"MAX_CONNS" envDefault:"25"`
	MinConns int    `env:"MIN_CONNS" envDefault:"5"`
}

// CacheConfig holds Dragonfly/Redis settings. An empty URL disables the
// progress cache.
type CacheConfig struct {
	URL string        `env:"URL"`
	TTL time.Duration `env:"TTL" envDefault:"10m"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"text"`
}

// Load reads configuration from environment variables with LEARN_ prefix.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: Prefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.Progress.Backend = strings.ToLower(strings.TrimSpace(cfg.Progress.Backend))
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	cfg.Log.Format = strings.ToLower(strings.TrimSpace(cfg.Log.Format))
	return cfg, nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.CourseKey) == "" {
		return fmt.Errorf("LEARN_COURSE_KEY must not be empty")
	}

	switch c.Progress.Backend {
	case BackendSQLite, BackendMemory:
	case BackendPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("LEARN_DATABASE_URL is required for the postgres backend")
		}
		if c.Database.MaxConns < 1 {
			return fmt.Errorf("LEARN_DATABASE_MAX_CONNS must be positive, got %d", c.Database.MaxConns)
		}
		if c.Database.MinConns < 0 || c.Database.MinConns > c.Database.MaxConns {
			return fmt.Errorf("LEARN_DATABASE_MIN_CONNS must be between 0 and %d, got %d", c.Database.MaxConns, c.Database.MinConns)
		}
	default:
		return fmt.Errorf("LEARN_PROGRESS_BACKEND must be 'sqlite', 'postgres' or 'memory', got %q", c.Progress.Backend)
	}

	if c.Cache.URL != "" && c.Cache.TTL <= 0 {
		return fmt.Errorf("LEARN_CACHE_TTL must be positive, got %s", c.Cache.TTL)
	}

	if _, err := c.Language(); err != nil {
		return err
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LEARN_LOG_LEVEL must be debug, info, warn or error, got %q", c.Log.Level)
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return fmt.Errorf("LEARN_LOG_FORMAT must be 'json' or 'text', got %q", c.Log.Format)
	}

	return nil
}

// Language parses Locale as a BCP 47 tag.
func (c *Config) Language() (language.Tag, error) {
	tag, err := language.Parse(c.Locale)
	if err != nil {
		return language.Und, fmt.Errorf("LEARN_LOCALE %q: %w", c.Locale, err)
	}
	return tag, nil
}
