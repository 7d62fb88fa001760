package config

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ENV", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("WEBHOOK_SECRET", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("MAX_BODY_BYTES", "")

	cfg := Load()

	if cfg.Port != "8000" {
		t.Fatalf("expected default port 8000, got %q", cfg.Port)
	}
	if cfg.DatabaseURL != "sqlite:////data/app.db" {
		t.Fatalf("unexpected default DATABASE_URL %q", cfg.DatabaseURL)
	}
	if cfg.LogLevel != "INFO" {
		t.Fatalf("expected default log level INFO, got %q", cfg.LogLevel)
	}
	if cfg.Env != "production" || cfg.IsDevelopment() {
		t.Fatalf("expected production by default, got %q", cfg.Env)
	}
	if cfg.MaxBodyBytes != 64*1024 {
		t.Fatalf("unexpected default body limit %d", cfg.MaxBodyBytes)
	}
	if !errors.Is(cfg.Validate(), ErrMissingSecret) {
		t.Fatal("expected ErrMissingSecret without WEBHOOK_SECRET")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("ENV", "production")
	t.Setenv("DATABASE_URL", "sqlite:///./test.db")
	t.Setenv("WEBHOOK_SECRET", "testsecret")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("MAX_BODY_BYTES", "1024")

	cfg := Load()

	if cfg.Port != "9000" || cfg.Env != "production" || cfg.DatabaseURL != "sqlite:///./test.db" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.IsDevelopment() {
		t.Fatal("expected production")
	}
	if cfg.MaxBodyBytes != 1024 {
		t.Fatalf("expected body limit 1024, got %d", cfg.MaxBodyBytes)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestInvalidMaxBodyBytesKeepsDefault(t *testing.T) {
	t.Setenv("MAX_BODY_BYTES", "lots")
	if cfg := Load(); cfg.MaxBodyBytes != 64*1024 {
		t.Fatalf("expected default body limit, got %d", cfg.MaxBodyBytes)
	}
}

func TestZerologLevel(t *testing.T) {
	tests := []struct {
		in    string
		want  zerolog.Level
		known bool
	}{
		{"DEBUG", zerolog.DebugLevel, true},
		{"info", zerolog.InfoLevel, true},
		{"Warning", zerolog.WarnLevel, true},
		{"ERROR", zerolog.ErrorLevel, true},
		{"", zerolog.InfoLevel, true},
		{"verbose", zerolog.InfoLevel, false},
	}
	for _, tt := range tests {
		cfg := &Config{LogLevel: tt.in}
		got, known := cfg.ZerologLevel()
		if got != tt.want || known != tt.known {
			t.Errorf("%q: expected (%v, %v), got (%v, %v)", tt.in, tt.want, tt.known, got, known)
		}
	}
}
