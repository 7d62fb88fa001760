package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/09ahmad/lyftr-backend-assignment/internal/crypto"
	"github.com/09ahmad/lyftr-backend-assignment/internal/metrics"
)

type contextKey string

const verifiedBodyKey contextKey = "verified_body"

// SignatureHeader carries the hex HMAC-SHA256 of the raw request body.
const SignatureHeader = "X-Signature"

// RequireSignature verifies the HMAC signature over the raw body before
// anything else looks at the request. Rejected requests are counted as
// invalid_signature and never reach next, whatever their size or content type.
// A correctly signed body over maxBytes is refused with 413 and counted as
// validation_error.
func RequireSignature(secret string, maxBytes int64, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, err := crypto.VerifyReader(secret, r.Body, maxBytes, r.Header.Get(SignatureHeader))
			if errors.Is(err, crypto.ErrBodyTooLarge) {
				m.ObserveWebhook(metrics.OutcomeValidationError)
				AnnotateWebhook(r.Context(), "", metrics.OutcomeValidationError)
				jsonError(w, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}
			if err != nil {
				m.ObserveWebhook(metrics.OutcomeInvalidSignature)
				AnnotateWebhook(r.Context(), "", metrics.OutcomeInvalidSignature)
				AnnotateError(r.Context(), err)
				jsonError(w, http.StatusUnauthorized, "invalid signature")
				return
			}

			r.Body = io.NopCloser(bytes.NewReader(body)) // Reset for handler
			ctx := context.WithValue(r.Context(), verifiedBodyKey, body)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// VerifiedBodyFromContext returns the raw body accepted by RequireSignature.
func VerifiedBodyFromContext(ctx context.Context) ([]byte, bool) {
	body, ok := ctx.Value(verifiedBodyKey).([]byte)
	return body, ok
}

func jsonError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
