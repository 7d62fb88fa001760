package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

const (
	defaultDatabaseURL  = "sqlite:////data/app.db"
	defaultMaxBodyBytes = 64 * 1024
)

// ErrMissingSecret is returned by Validate when WEBHOOK_SECRET is unset.
var ErrMissingSecret = errors.New("WEBHOOK_SECRET is required")

// Config holds all configuration for the application.
type Config struct {
	Port          string
	Env           string
	DatabaseURL   string
	WebhookSecret string
	LogLevel      string
	MaxBodyBytes  int64
}

// Load reads configuration from environment variables.
// In development, it loads from .env file if present.
func Load() *Config {
	// Load .env file if it exists (for development)
	_ = godotenv.Load()

	cfg := &Config{
		Port:          getEnv("PORT", "8000"),
		Env:           getEnv("ENV", "production"),
		DatabaseURL:   getEnv("DATABASE_URL", defaultDatabaseURL),
		WebhookSecret: os.Getenv("WEBHOOK_SECRET"),
		LogLevel:      getEnv("LOG_LEVEL", "INFO"),
		MaxBodyBytes:  defaultMaxBodyBytes,
	}

	if v := os.Getenv("MAX_BODY_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.MaxBodyBytes = n
		}
	}

	return cfg
}

// Validate reports configuration that prevents the service from verifying
// webhooks.
func (c *Config) Validate() error {
	if c.WebhookSecret == "" {
		return ErrMissingSecret
	}
	return nil
}

// IsDevelopment returns true if running in development mode. ENV must be set
// explicitly; an unset ENV is production.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ZerologLevel maps LOG_LEVEL onto a zerolog level. The second return value
// is false when the configured value was not recognised.
func (c *Config) ZerologLevel() (zerolog.Level, bool) {
	switch strings.ToUpper(strings.TrimSpace(c.LogLevel)) {
	case "TRACE":
		return zerolog.TraceLevel, true
	case "DEBUG":
		return zerolog.DebugLevel, true
	case "INFO", "":
		return zerolog.InfoLevel, true
	case "WARN", "WARNING":
		return zerolog.WarnLevel, true
	case "ERROR":
		return zerolog.ErrorLevel, true
	case "CRITICAL", "FATAL":
		return zerolog.FatalLevel, true
	default:
		return zerolog.InfoLevel, false
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
