package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/09ahmad/lyftr-backend-assignment/internal/metrics"
	"github.com/09ahmad/lyftr-backend-assignment/internal/store"
)

// Handler contains shared dependencies for all HTTP handlers.
type Handler struct {
	store    store.DataStore
	metrics  *metrics.Metrics
	secret   string
	validate *validator.Validate
}

// NewHandler creates a new Handler. secret is only consulted by the
// readiness check; signatures are verified by middleware.RequireSignature.
func NewHandler(ds store.DataStore, m *metrics.Metrics, secret string) *Handler {
	return &Handler{
		store:    ds,
		metrics:  m,
		secret:   secret,
		validate: newValidator(),
	}
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error sends a JSON error response with the given status code.
func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, ErrorResponse{Error: message})
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error   string       `json:"error"`
	Details []FieldError `json:"details,omitempty"`
}

// FieldError describes one invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError sends a 422 response listing the offending fields.
func (h *Handler) ValidationError(w http.ResponseWriter, message string, details []FieldError) {
	h.JSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: message, Details: details})
}
