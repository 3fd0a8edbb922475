package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// WorkerMetrics records metadata for background consumers and the outbox
// publisher loop.
type WorkerMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
}

// NewWorkerMetrics registers the worker metrics on the provided registerer.
func NewWorkerMetrics(reg prometheus.Registerer) *WorkerMetrics {
	if reg == nil {
		return &WorkerMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "worker_batch_duration_seconds",
		Help:    "Duration of worker batches in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"worker"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "worker_success_total",
		Help: "Successful worker executions.",
	}, []string{"worker"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "worker_failure_total",
		Help: "Failed worker executions.",
	}, []string{"worker"})
	reg.MustRegister(duration, success, failure)
	return &WorkerMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
	}
}

// ObserveDuration records the duration for the named worker.
func (w *WorkerMetrics) ObserveDuration(worker string, elapsed time.Duration) {
	if w == nil || w.duration == nil {
		return
	}
	w.duration.WithLabelValues(normalizeLabel(worker)).Observe(elapsed.Seconds())
}

// IncSuccess increments the success counter for the named worker.
func (w *WorkerMetrics) IncSuccess(worker string) {
	if w == nil || w.success == nil {
		return
	}
	w.success.WithLabelValues(normalizeLabel(worker)).Inc()
}

// IncFailure increments the failure counter for the named worker.
func (w *WorkerMetrics) IncFailure(worker string) {
	if w == nil || w.failure == nil {
		return
	}
	w.failure.WithLabelValues(normalizeLabel(worker)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
