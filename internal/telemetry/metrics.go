package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	QuotesReturned  *prometheus.HistogramVec
	Reloads         *prometheus.CounterVec
}

// NewMetrics creates metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "freightquote_requests_total",
				Help: "Total number of requests by operation and status",
			},
			[]string{"operation", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "freightquote_request_duration_seconds",
				Help:    "Request duration in seconds by operation",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		QuotesReturned: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "freightquote_quotes_returned",
				Help:    "Number of quotes returned per request by destination country",
				Buckets: []float64{0, 1, 2, 3, 5, 8, 13},
			},
			[]string{"country"},
		),
		Reloads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "freightquote_reference_reloads_total",
				Help: "Reference data reloads by status",
			},
			[]string{"status"},
		),
	}
}

// RecordRequest records a request metric.
func (m *Metrics) RecordRequest(operation, status string, duration float64) {
	m.RequestsTotal.WithLabelValues(operation, status).Inc()
	m.RequestDuration.WithLabelValues(operation).Observe(duration)
}

// RecordQuotes records how many quotes a request produced.
func (m *Metrics) RecordQuotes(country string, n int) {
	m.QuotesReturned.WithLabelValues(country).Observe(float64(n))
}

// RecordReload records a reference data reload attempt.
func (m *Metrics) RecordReload(status string) {
	m.Reloads.WithLabelValues(status).Inc()
}
