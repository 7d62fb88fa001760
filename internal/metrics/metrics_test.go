package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestOutcomesStartAtZero(t *testing.T) {
	m := New()
	for _, outcome := range Outcomes {
		if got := testutil.ToFloat64(m.WebhookRequestsTotal.WithLabelValues(outcome)); got != 0 {
			t.Fatalf("expected %s to start at 0, got %v", outcome, got)
		}
	}
	if got := testutil.CollectAndCount(m.WebhookRequestsTotal); got != len(Outcomes) {
		t.Fatalf("expected %d outcome series, got %d", len(Outcomes), got)
	}
}

func TestObserveWebhookConcurrent(t *testing.T) {
	m := New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.ObserveWebhook(OutcomeCreated)
			m.ObserveRequest("/webhook", http.StatusOK, 15*time.Millisecond)
		}()
	}
	wg.Wait()

	if got := testutil.ToFloat64(m.WebhookRequestsTotal.WithLabelValues(OutcomeCreated)); got != 50 {
		t.Fatalf("expected 50 created, got %v", got)
	}
	if got := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("/webhook", "200")); got != 50 {
		t.Fatalf("expected 50 requests, got %v", got)
	}
}

func TestHandlerExposition(t *testing.T) {
	m := New()
	m.ObserveRequest("/messages", http.StatusUnprocessableEntity, 120*time.Millisecond)
	m.ObserveWebhook(OutcomeDuplicate)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	text := string(body)

	for _, want := range []string{
		`http_requests_total{path="/messages",status="422"} 1`,
		`webhook_requests_total{result="duplicate"} 1`,
		`webhook_requests_total{result="invalid_signature"} 0`,
		`request_latency_ms_bucket{le="100"} 0`,
		`request_latency_ms_bucket{le="200"} 1`,
		`request_latency_ms_bucket{le="+Inf"} 1`,
		`request_latency_ms_count 1`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("exposition missing %q", want)
		}
	}
}
