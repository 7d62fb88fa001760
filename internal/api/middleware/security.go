package middleware

import (
	"net/http"
	"strings"

	"github.com/09ahmad/lyftr-backend-assignment/internal/metrics"
)

// SecurityHeaders adds security headers to all responses.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Content-Security-Policy", "default-src 'none'")

		next.ServeHTTP(w, r)
	})
}

// MaxBodySize limits request body size.
func MaxBodySize(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				jsonError(w, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

// RequireJSON rejects POST/PUT/PATCH bodies that are not declared as JSON.
func RequireJSON(next http.Handler) http.Handler {
	return requireJSON(next, nil)
}

// RequireWebhookJSON is RequireJSON for the signed webhook route; rejections
// are counted as validation_error.
func RequireWebhookJSON(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return requireJSON(next, func(r *http.Request) {
			m.ObserveWebhook(metrics.OutcomeValidationError)
			AnnotateWebhook(r.Context(), "", metrics.OutcomeValidationError)
		})
	}
}

func requireJSON(next http.Handler, rejected func(r *http.Request)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			ct := r.Header.Get("Content-Type")
			// Allow empty body with no content-type
			if r.ContentLength != 0 && ct != "" && !strings.HasPrefix(strings.ToLower(ct), "application/json") {
				if rejected != nil {
					rejected(r)
				}
				jsonError(w, http.StatusUnsupportedMediaType, "content-type must be application/json")
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}
