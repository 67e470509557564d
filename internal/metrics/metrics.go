// Package metrics holds the prometheus collectors for the HTTP layer, the
// circulation engines and the notification dispatcher.
package metrics

import (
	"github.com/ngenohkevin/circulation/internal/apperrors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route and status.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10},
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_progress",
			Help: "HTTP requests currently being served.",
		},
	)

	// CirculationOperations counts engine operations by outcome. result is
	// "ok" or the error kind.
	CirculationOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circulation_operations_total",
			Help: "Reservation, loan and fine operations by outcome.",
		},
		[]string{"operation", "result"},
	)

	SweptRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circulation_swept_records_total",
			Help: "Records transitioned by periodic sweeps.",
		},
		[]string{"sweep"},
	)

	FinesCollectedAmount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "circulation_fines_collected_amount_total",
			Help: "Money collected against fines.",
		},
	)

	DependencyFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circulation_dependency_failures_total",
			Help: "Failed side effects (audit, notifications, events). Never surfaced to callers.",
		},
		[]string{"collaborator"},
	)

	NotificationJobs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_jobs_total",
			Help: "Notification jobs by outcome (enqueued, sent, retried, dead).",
		},
		[]string{"outcome"},
	)
)

// ObserveOperation records the outcome of one engine operation.
func ObserveOperation(operation string, err error) {
	result := "ok"
	if err != nil {
		result = apperrors.KindOf(err).String()
	}
	CirculationOperations.WithLabelValues(operation, result).Inc()
}
