// Package config loads and validates environment variables at startup.
// Fail-fast: if a required variable is missing, the process exits.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all runtime configuration for jobradar.
type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL"`

	// Source connector credentials. Empty credentials disable searching.
	SourceBaseURL string `env:"SOURCE_BASE_URL" envDefault:"https://api.adzuna.com/v1/api/jobs/gb"`
	SourceAppID   string `env:"SOURCE_APP_ID"`
	SourceAppKey  string `env:"SOURCE_APP_KEY"`
	SourceName    string `env:"SOURCE_NAME" envDefault:"adzuna"`

	// Catalog service.
	CatalogBaseURL string `env:"CATALOG_BASE_URL"`
	CatalogToken   string `env:"CATALOG_TOKEN"`

	// Batch execution tuning.
	TierCooldown  time.Duration `env:"TIER_COOLDOWN" envDefault:"30s"`
	TaskTimeout   time.Duration `env:"TASK_TIMEOUT" envDefault:"60s"`
	Concurrency   int           `env:"SEARCH_CONCURRENCY" envDefault:"10"`
	NotifyTopN    int           `env:"NOTIFY_TOP_N" envDefault:"10"`
	MinSalary     int           `env:"FILTER_MIN_SALARY"`
	FilterRegion  string        `env:"FILTER_REGION"`
	FilterLevel   string        `env:"FILTER_SENIORITY"`
	NotifyChannel string        `env:"NOTIFY_CHANNEL"`

	// SMTP digest delivery. Disabled when the host is empty.
	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	EmailFrom    string `env:"EMAIL_FROM"`
	EmailTo      string `env:"EMAIL_TO"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
}

// Load parses the environment into a validated Config. DATABASE_URL and
// REDIS_URL are optional: without them jobradar runs on the in-memory store
// and skips Redis notifications.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if cfg.Concurrency < 1 {
		return nil, fmt.Errorf("SEARCH_CONCURRENCY must be positive, got %d", cfg.Concurrency)
	}
	if cfg.TierCooldown < 0 {
		return nil, fmt.Errorf("TIER_COOLDOWN must not be negative, got %s", cfg.TierCooldown)
	}

	return &cfg, nil
}
