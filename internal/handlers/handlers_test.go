package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/09ahmad/lyftr-backend-assignment/internal/api/middleware"
	"github.com/09ahmad/lyftr-backend-assignment/internal/crypto"
	"github.com/09ahmad/lyftr-backend-assignment/internal/metrics"
	"github.com/09ahmad/lyftr-backend-assignment/internal/models"
)

var errStoreDown = errors.New("store down")

// brokenStore fails every operation.
type brokenStore struct{}

func (brokenStore) Close()                                               {}
func (brokenStore) Ping(context.Context) error                           { return errStoreDown }
func (brokenStore) InsertMessage(context.Context, *models.Message) error { return errStoreDown }
func (brokenStore) GetMessage(context.Context, string) (*models.Message, error) {
	return nil, errStoreDown
}
func (brokenStore) ListMessages(context.Context, models.MessageFilter) ([]models.Message, int, error) {
	return nil, 0, errStoreDown
}
func (brokenStore) Stats(context.Context) (*models.Stats, error) { return nil, errStoreDown }

func TestWebhookRequiresVerifiedBody(t *testing.T) {
	m := metrics.New()
	h := NewHandler(brokenStore{}, m, "secret")

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	h.Webhook(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WebhookRequestsTotal.WithLabelValues(metrics.OutcomeInvalidSignature)))
}

func TestWebhookInsertError(t *testing.T) {
	m := metrics.New()
	h := NewHandler(brokenStore{}, m, "secret")
	body := `{"message_id":"m1","from":"+911","to":"+922","ts":"2025-01-15T10:00:00Z"}`

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set(middleware.SignatureHeader, crypto.Sign("secret", []byte(body)))
	rec := httptest.NewRecorder()
	middleware.RequireSignature("secret", 1024, m)(http.HandlerFunc(h.Webhook)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), errStoreDown.Error())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WebhookRequestsTotal.WithLabelValues(metrics.OutcomeInsertError)))
}

func TestReadEndpointsSurfaceStoreErrors(t *testing.T) {
	h := NewHandler(brokenStore{}, metrics.New(), "secret")

	for path, handler := range map[string]http.HandlerFunc{
		"/messages":     h.ListMessages,
		"/stats":        h.Stats,
		"/health/ready": h.Ready,
	} {
		rec := httptest.NewRecorder()
		handler(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.GreaterOrEqual(t, rec.Code, 500, path)
	}
}

func TestParseMessageFilter(t *testing.T) {
	filter, details := parseMessageFilter(url.Values{})
	require.Empty(t, details)
	assert.Equal(t, models.MessageFilter{Limit: DefaultLimit}, filter)

	filter, details = parseMessageFilter(url.Values{
		"limit":  {"10"},
		"offset": {"5"},
		"from":   {" 911"},
		"since":  {"2025-01-15T10:00:00.5Z"},
		"q":      {"hi"},
	})
	require.Empty(t, details)
	assert.Equal(t, models.MessageFilter{Limit: 10, Offset: 5, From: "+911", Since: "2025-01-15T10:00:00.5Z", Query: "hi"}, filter)

	_, details = parseMessageFilter(url.Values{
		"limit":  {"0"},
		"offset": {"x"},
		"since":  {"2025-01-15T10:00:00+00:00"},
	})
	fields := make([]string, 0, len(details))
	for _, d := range details {
		fields = append(fields, d.Field)
	}
	assert.Equal(t, []string{"limit", "offset", "since"}, fields)
}

func TestNormalizeSender(t *testing.T) {
	assert.Equal(t, "+911", normalizeSender(" 911"))
	assert.Equal(t, "+911", normalizeSender("+911"))
	assert.Equal(t, " abc", normalizeSender(" abc"))
	assert.Equal(t, "", normalizeSender(""))
}

func TestIsUTCTimestamp(t *testing.T) {
	for ts, want := range map[string]bool{
		"2025-01-15T10:00:00Z":        true,
		"2025-01-15T10:00:00.123456Z": true,
		"2025-01-15T10:00:00+00:00":   false,
		"2025-01-15T10:00:00":         false,
		"2025-01-15Z":                 false,
		"2025-13-15T10:00:00Z":        false,
		"":                            false,
	} {
		assert.Equal(t, want, isUTCTimestamp(ts), ts)
	}
}

func TestTextLengthCountsCharacters(t *testing.T) {
	v := newValidator()
	base := WebhookRequest{MessageID: "m1", From: "+911", To: "+922", Timestamp: "2025-01-15T10:00:00Z"}

	text := strings.Repeat("ü", MaxTextLength)
	base.Text = &text
	assert.NoError(t, v.Struct(base))

	text += "ü"
	err := v.Struct(base)
	require.Error(t, err)
	assert.Equal(t, "text", fieldErrors(err)[0].Field)
}
