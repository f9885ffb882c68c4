package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all application configuration values
type Config struct {
	Port     int    `env:"PORT" envDefault:"8080"`
	GinMode  string `env:"GIN_MODE" envDefault:"release"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	NotionAPIKey           string `env:"NOTION_API_KEY"`
	NotionTalentDatabaseID string `env:"NOTION_TALENT_DATABASE_ID"`
	NotionVersion          string `env:"NOTION_VERSION" envDefault:"2022-06-28"`
	NotionBaseURL          string `env:"NOTION_BASE_URL" envDefault:"https://api.notion.com/v1"`
	NotionMaxRetries       int    `env:"NOTION_MAX_RETRIES" envDefault:"3"`

	FormspreeBaseURL       string `env:"FORMSPREE_BASE_URL" envDefault:"https://formspree.io/f"`
	FormspreeContactFormID string `env:"FORMSPREE_CONTACT_FORM_ID" envDefault:"mlggdrdr"`
	FormspreeTalentFormID  string `env:"FORMSPREE_TALENT_FORM_ID"`

	ContentPath  string `env:"CONTENT_PATH" envDefault:"public/website-content.json"`
	ContentWatch bool   `env:"CONTENT_WATCH" envDefault:"true"`
	StaticDir    string `env:"STATIC_DIR"`

	SubmissionsDBPath string `env:"SUBMISSIONS_DB_PATH" envDefault:"data/submissions.db"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	MaxUploadBytes     int64    `env:"MAX_UPLOAD_BYTES" envDefault:"10485760"`
	RateLimitPerMinute int      `env:"RATE_LIMIT_PER_MINUTE" envDefault:"20"`
	RateLimitBurst     int      `env:"RATE_LIMIT_BURST" envDefault:"5"`

	HTTPClientTimeout time.Duration `env:"HTTP_CLIENT_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`
}

// LoadConfig reads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	for i, origin := range cfg.CORSAllowedOrigins {
		cfg.CORSAllowedOrigins[i] = strings.TrimSpace(origin)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NotionConfigured reports whether submissions can be relayed to Notion.
func (c *Config) NotionConfigured() bool {
	return c.NotionAPIKey != "" && c.NotionTalentDatabaseID != ""
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate rejects values the server cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port))
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, fmt.Errorf("MAX_UPLOAD_BYTES must be positive, got %d", c.MaxUploadBytes))
	}
	if c.RateLimitPerMinute < 0 || c.RateLimitBurst < 0 {
		errs = append(errs, errors.New("rate limit values must not be negative"))
	}
	if c.NotionMaxRetries < 0 {
		errs = append(errs, fmt.Errorf("NOTION_MAX_RETRIES must not be negative, got %d", c.NotionMaxRetries))
	}
	return errors.Join(errs...)
}
