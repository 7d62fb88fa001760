package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/09ahmad/lyftr-backend-assignment/internal/crypto"
	"github.com/09ahmad/lyftr-backend-assignment/internal/metrics"
)

func TestRequestID(t *testing.T) {
	tests := []struct {
		name    string
		inbound string
		reused  bool
	}{
		{"generated", "", false},
		{"reused", "abc-123.x:y_z", true},
		{"too long", strings.Repeat("a", 65), false},
		{"bad characters", "abc def", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = chimw.GetReqID(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.inbound != "" {
				req.Header.Set(RequestIDHeader, tt.inbound)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))
			if tt.reused {
				assert.Equal(t, tt.inbound, seen)
			} else {
				assert.Len(t, seen, 26)
			}
		})
	}
}

func TestRequireSignature(t *testing.T) {
	m := metrics.New()
	var got []byte
	h := RequireSignature("secret", 1024, m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = VerifiedBodyFromContext(r.Context())
		// The body is still readable downstream.
		again, _ := io.ReadAll(r.Body)
		assert.Equal(t, got, again)
		w.WriteHeader(http.StatusNoContent)
	}))

	body := `{"message_id":"m1"}`

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set(SignatureHeader, crypto.Sign("secret", []byte(body)))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, body, string(got))

	got = nil
	req = httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body+" "))
	req.Header.Set(SignatureHeader, crypto.Sign("secret", []byte(body)))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, got)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WebhookRequestsTotal.WithLabelValues(metrics.OutcomeInvalidSignature)))
}

func TestRequireSignatureBodyTooLarge(t *testing.T) {
	large := strings.Repeat("x", 64)

	tests := []struct {
		name      string
		signature string
		want      int
		outcome   string
	}{
		{"signed", crypto.Sign("secret", []byte(large)), http.StatusRequestEntityTooLarge, metrics.OutcomeValidationError},
		{"unsigned", "", http.StatusUnauthorized, metrics.OutcomeInvalidSignature},
		{"wrong signature", crypto.Sign("other", []byte(large)), http.StatusUnauthorized, metrics.OutcomeInvalidSignature},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := metrics.New()
			h := RequireSignature("secret", 16, m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("handler must not run")
			}))

			req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(large))
			if tt.signature != "" {
				req.Header.Set(SignatureHeader, tt.signature)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			assert.Equal(t, 1.0, testutil.ToFloat64(m.WebhookRequestsTotal.WithLabelValues(tt.outcome)))
		})
	}
}

func TestRequireWebhookJSON(t *testing.T) {
	m := metrics.New()
	h := RequireWebhookJSON(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WebhookRequestsTotal.WithLabelValues(metrics.OutcomeValidationError)))

	req = httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WebhookRequestsTotal.WithLabelValues(metrics.OutcomeValidationError)))
}

func TestMaxBodySizeContentLength(t *testing.T) {
	h := MaxBodySize(16)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 64)))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.JSONEq(t, `{"error":"request body too large"}`, rec.Body.String())
}

func TestRequireJSON(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	tests := []struct {
		method      string
		contentType string
		want        int
	}{
		{http.MethodPost, "application/json", http.StatusOK},
		{http.MethodPost, "application/json; charset=utf-8", http.StatusOK},
		{http.MethodPost, "", http.StatusOK},
		{http.MethodPost, "text/plain", http.StatusUnsupportedMediaType},
		{http.MethodGet, "text/plain", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.contentType, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/", strings.NewReader("{}"))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rec := httptest.NewRecorder()
			RequireJSON(ok).ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestLoggerLevels(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "info"},
		{http.StatusUnprocessableEntity, "warn"},
		{http.StatusInternalServerError, "error"},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			var buf bytes.Buffer
			h := RequestID(Logger(zerolog.New(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})))

			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/stats", nil))

			var entry map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
			assert.Equal(t, tt.level, entry["level"])
			assert.Equal(t, float64(tt.status), entry["status"])
			assert.Equal(t, "/stats", entry["path"])
			assert.NotEmpty(t, entry["request_id"])
			assert.NotContains(t, entry, "result")
		})
	}
}

func TestMetricsOutsideRouter(t *testing.T) {
	m := metrics.New()
	h := Metrics(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/anything/123", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("/anything/123", "404")))
}
