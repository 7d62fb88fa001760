package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Webhook outcome labels.
const (
	OutcomeCreated          = "created"
	OutcomeDuplicate        = "duplicate"
	OutcomeInvalidSignature = "invalid_signature"
	OutcomeValidationError  = "validation_error"
	OutcomeInsertError      = "insert_error"
)

// Outcomes lists every webhook outcome label.
var Outcomes = []string{
	OutcomeCreated,
	OutcomeDuplicate,
	OutcomeInvalidSignature,
	OutcomeValidationError,
	OutcomeInsertError,
}

// LatencyBuckets are the request latency histogram bounds in milliseconds.
// Prometheus adds the +Inf bucket.
var LatencyBuckets = []float64{10, 50, 100, 200, 500, 1000, 2000, 5000}

// Metrics owns the process counters and the registry they are exposed from.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal    *prometheus.CounterVec
	WebhookRequestsTotal *prometheus.CounterVec
	RequestLatency       prometheus.Histogram
}

// New creates a Metrics instance backed by its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Metrics{
		registry: reg,

		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"path", "status"},
		),

		WebhookRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "webhook_requests_total",
				Help: "Total number of webhook processing outcomes",
			},
			[]string{"result"},
		),

		RequestLatency: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "request_latency_ms",
				Help:    "HTTP request latency in milliseconds",
				Buckets: LatencyBuckets,
			},
		),
	}

	// Expose every outcome from process start, even at zero.
	for _, outcome := range Outcomes {
		m.WebhookRequestsTotal.WithLabelValues(outcome)
	}

	return m
}

// ObserveRequest records one completed HTTP request.
func (m *Metrics) ObserveRequest(path string, status int, latency time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(path, strconv.Itoa(status)).Inc()
	m.RequestLatency.Observe(float64(latency) / float64(time.Millisecond))
}

// ObserveWebhook records the outcome of one webhook request.
func (m *Metrics) ObserveWebhook(outcome string) {
	m.WebhookRequestsTotal.WithLabelValues(outcome).Inc()
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
