package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/09ahmad/lyftr-backend-assignment/internal/api"
	"github.com/09ahmad/lyftr-backend-assignment/internal/config"
	"github.com/09ahmad/lyftr-backend-assignment/internal/metrics"
	"github.com/09ahmad/lyftr-backend-assignment/internal/store"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	logger := newLogger(cfg, os.Stdout)

	if _, known := cfg.ZerologLevel(); !known {
		logger.Warn().Str("log_level", cfg.LogLevel).Msg("unknown LOG_LEVEL, using info")
	}

	if err := cfg.Validate(); err != nil {
		if !cfg.IsDevelopment() {
			logger.Fatal().Err(err).Msg("invalid configuration")
		}
		logger.Warn().Err(err).Msg("webhooks will be rejected and readiness will fail until WEBHOOK_SECRET is set")
	}

	ctx := context.Background()

	// Initialize store
	dataStore, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("store initialization failed")
	}
	defer dataStore.Close()
	logger.Info().Str("store", storeKind(dataStore)).Msg("store ready")

	// Create router
	router := api.NewRouter(logger, cfg, dataStore, metrics.New())

	// Create server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("env", cfg.Env).
			Msg("starting webhook server")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server...")

	// Graceful shutdown with 30 second timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server stopped")
}

// newLogger writes JSON lines unless ENV=development asks for console output.
func newLogger(cfg *config.Config, out io.Writer) zerolog.Logger {
	zerolog.TimestampFieldName = "ts"
	zerolog.TimeFieldFormat = "2006-01-02T15:04:05.000Z07:00"
	zerolog.TimestampFunc = func() time.Time { return time.Now().UTC() }

	if cfg.IsDevelopment() {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	level, _ := cfg.ZerologLevel()
	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Logger()
}

func storeKind(s store.DataStore) string {
	switch s.(type) {
	case *store.PostgresStore:
		return "postgres"
	case *store.RedisStore:
		return "redis"
	default:
		return "sqlite"
	}
}
