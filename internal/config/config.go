// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	// Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// Cache (Redis)
	RedisURL string `env:"REDIS_URL,required"`

	// Base URL embedded in account-linking QR codes
	// (e.g. https://app.palmgate.example)
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:8080"`

	// Secret shared with the external identity provider for verifying
	// user session tokens.
	SessionSecret string `env:"SESSION_SECRET,required"`

	// Simulated scanner success rate in [0,1]. The simulated driver is
	// the only one wired today; a hardware driver would ignore this.
	ScannerSuccessRate float64 `env:"SCANNER_SUCCESS_RATE" envDefault:"0.8"`

	// Token housekeeping
	SweepInterval time.Duration `env:"SWEEP_INTERVAL" envDefault:"1h"`

	// Activity event stream (publisher plus background worker)
	EventsEnabled bool `env:"EVENTS_ENABLED" envDefault:"true"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Rate limiting
	RateLimitAPIEnabled    bool `env:"RATE_LIMIT_API_ENABLED" envDefault:"true"`
	RateLimitPublicEnabled bool `env:"RATE_LIMIT_PUBLIC_ENABLED" envDefault:"true"`
	RateLimitPublicRPS     int  `env:"RATE_LIMIT_PUBLIC_RPS" envDefault:"20"`
	RateLimitPublicBurst   int  `env:"RATE_LIMIT_PUBLIC_BURST" envDefault:"10"`

	// CORS configuration
	// Comma-separated list of allowed origins (e.g., "https://example.com,https://app.example.com")
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:""`

	// Request body size limit in bytes (default 1MB)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"1048576"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// GetCORSAllowedOrigins parses the comma-separated origins string into a slice.
func (c *Config) GetCORSAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}

	origins := strings.Split(c.CORSAllowedOrigins, ",")
	result := make([]string, 0, len(origins))

	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// Load parses environment variables and returns a Config.
// Returns an error if required variables are missing or out of range.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.ScannerSuccessRate < 0 || cfg.ScannerSuccessRate > 1 {
		return nil, errors.New("SCANNER_SUCCESS_RATE must be between 0 and 1")
	}
	return cfg, nil
}
