// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Server holds process-level configuration, loaded once at startup.
type Server struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	// Link target on the confirmation page
	HomeURL string `env:"HOME_URL" envDefault:"/"`

	// Optional subscription audit log (PostgreSQL). Disabled when empty.
	DatabaseURL string `env:"DATABASE_URL"`

	// Optional rate limiting backend (Redis). Disabled when empty.
	RedisURL string `env:"REDIS_URL"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts. The write timeout must cover the full poll loop
	// (10 attempts x 1.5s) plus upstream latency.
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Rate limiting for the subscribe form (per client IP)
	RateLimitEnabled bool `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	RateLimitRPS     int  `env:"RATE_LIMIT_RPS" envDefault:"5"`
	RateLimitBurst   int  `env:"RATE_LIMIT_BURST" envDefault:"10"`

	// Request body size limit in bytes (default 1MB)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"1048576"`
}

// IsDevelopment returns true if running in development mode.
func (c *Server) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Server) IsProduction() bool {
	return c.AppEnv == "production"
}

// Load parses environment variables and returns a Server config.
func Load() (*Server, error) {
	cfg := &Server{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// Discourse holds the credentials and targets for one workflow run.
// It is re-read from the environment on every inbound request, so the
// process picks up rotated keys without a restart.
type Discourse struct {
	// Admin API credentials
	APIKey  string
	APIUser string

	// Forum base URL, e.g. https://forum.example.org (no trailing slash)
	BaseURL string

	// Recipient of the synthesized subscribe message
	ToAddress string

	// Group that found users are added to
	GroupID int64
}

// discourseEnv mirrors Discourse with raw string fields so that a
// malformed GROUP_ID can be reported by name instead of by struct field.
type discourseEnv struct {
	APIKey    string `env:"API_KEY,required"`
	BaseURL   string `env:"BASE_URL,required"`
	APIUser   string `env:"API_USER,required"`
	ToAddress string `env:"TO_ADDRESS,required"`
	GroupID   string `env:"GROUP_ID,required"`
}

// LoadDiscourse parses the five workflow variables from the environment.
// A missing variable or a non-numeric GROUP_ID is an error naming the
// offending variable.
func LoadDiscourse() (*Discourse, error) {
	var raw discourseEnv
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("discourse config: %w", err)
	}

	groupID, err := strconv.ParseInt(strings.TrimSpace(raw.GroupID), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("discourse config: GROUP_ID is not a number: %q", raw.GroupID)
	}

	return &Discourse{
		APIKey:    raw.APIKey,
		APIUser:   raw.APIUser,
		BaseURL:   strings.TrimRight(raw.BaseURL, "/"),
		ToAddress: raw.ToAddress,
		GroupID:   groupID,
	}, nil
}
