// internal/pkg/metrics/metrics.go
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors of the API and the workers
type Metrics struct {
	requestCounter   *prometheus.CounterVec
	requestLatency   *prometheus.HistogramVec
	stockAdjustments *prometheus.CounterVec
	tasksProcessed   *prometheus.CounterVec
}

// New creates the collectors and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	requestCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	requestLatency := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	stockAdjustments := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stock_adjustments_total",
			Help: "Stock adjustments by movement type and outcome",
		},
		[]string{"type", "outcome"},
	)

	tasksProcessed := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "background_tasks_total",
			Help: "Background tasks processed by type and result",
		},
		[]string{"task", "result"},
	)

	reg.MustRegister(requestCounter, requestLatency, stockAdjustments, tasksProcessed)

	return &Metrics{
		requestCounter:   requestCounter,
		requestLatency:   requestLatency,
		stockAdjustments: stockAdjustments,
		tasksProcessed:   tasksProcessed,
	}
}

// ObserveRequest records one served HTTP request. path should be the route
// pattern, not the raw URL, to keep label cardinality bounded.
func (m *Metrics) ObserveRequest(method, path string, status int, duration time.Duration) {
	m.requestCounter.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.requestLatency.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordAdjustment counts one stock adjustment outcome
func (m *Metrics) RecordAdjustment(movementType, outcome string) {
	if movementType == "" {
		movementType = "invalid"
	}
	m.stockAdjustments.WithLabelValues(movementType, outcome).Inc()
}

// RecordTask counts one processed background task
func (m *Metrics) RecordTask(task string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	m.tasksProcessed.WithLabelValues(task, result).Inc()
}
