package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	TrackedOrders   *prometheus.CounterVec
	UpstreamErrors  *prometheus.CounterVec
}

// NewMetrics creates the service metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "codtracker_requests_total",
				Help: "Total number of dashboard operations by operation and outcome",
			},
			[]string{"operation", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "codtracker_request_duration_seconds",
				Help:    "Dashboard operation duration in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
			[]string{"operation"},
		),
		TrackedOrders: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "codtracker_tracked_orders_total",
				Help: "Tracked COD orders returned, by canonical status",
			},
			[]string{"status"},
		),
		UpstreamErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "codtracker_upstream_errors_total",
				Help: "Upstream API errors by service and error type",
			},
			[]string{"service", "error_type"},
		),
	}
}

// RecordRequest records an operation outcome and its duration.
func (m *Metrics) RecordRequest(operation, status string, duration float64) {
	m.RequestsTotal.WithLabelValues(operation, status).Inc()
	m.RequestDuration.WithLabelValues(operation).Observe(duration)
}

// RecordTracked counts one returned record under its status label.
func (m *Metrics) RecordTracked(status string) {
	m.TrackedOrders.WithLabelValues(status).Inc()
}

// RecordError records an upstream error metric.
func (m *Metrics) RecordError(service, errorType string) {
	m.UpstreamErrors.WithLabelValues(service, errorType).Inc()
}
