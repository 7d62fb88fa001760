package api

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/09ahmad/lyftr-backend-assignment/internal/api/middleware"
	"github.com/09ahmad/lyftr-backend-assignment/internal/config"
	"github.com/09ahmad/lyftr-backend-assignment/internal/handlers"
	"github.com/09ahmad/lyftr-backend-assignment/internal/metrics"
	"github.com/09ahmad/lyftr-backend-assignment/internal/store"
)

// NewRouter creates and configures the HTTP router.
func NewRouter(logger zerolog.Logger, cfg *config.Config, dataStore store.DataStore, m *metrics.Metrics) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware (first to capture all requests)
	r.Use(middleware.Metrics(m))

	// Standard middleware
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)

	// Security middleware
	r.Use(middleware.SecurityHeaders)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", middleware.SignatureHeader, middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	h := handlers.NewHandler(dataStore, m, cfg.WebhookSecret)

	// Public routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.MaxBodySize(cfg.MaxBodyBytes))
		r.Use(middleware.RequireJSON)

		// Metrics endpoint (for Prometheus scraping)
		r.Handle("/metrics", m.Handler())

		r.Get("/", h.Root)
		r.Get("/health/live", h.Live)
		r.Get("/health/ready", h.Ready)
		r.Get("/messages", h.ListMessages)
		r.Get("/stats", h.Stats)
	})

	// Signed routes. The signature is checked before size and content type so
	// an unauthenticated request only ever sees 401.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireSignature(cfg.WebhookSecret, cfg.MaxBodyBytes, m))
		r.Use(middleware.RequireWebhookJSON(m))

		r.Post("/webhook", h.Webhook)
	})

	return r
}
