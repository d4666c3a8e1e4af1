// Package metrics instruments the kernel with Prometheus counters and
// histograms, registered as a kernel.Observer (spec.md §4.3) so every
// committed mutation and change-log append is counted without the
// service layer knowing metrics exist. Grounded on the teacher's
// tracing/metrics.go promauto.NewCounterVec/NewHistogramVec pattern.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the kernel's Prometheus metric families.
type Metrics struct {
	EntityWrites    *prometheus.CounterVec
	EntityWriteTime *prometheus.HistogramVec
	ChangeAppends   *prometheus.CounterVec
	RetryExhausted  *prometheus.CounterVec
	RetryAttempts   *prometheus.CounterVec
}

// New creates and registers the kernel's metrics under namespace (default
// "kernel" when empty).
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = "kernel"
	}

	return &Metrics{
		EntityWrites: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entity_writes_total",
			Help:      "Total number of entity manifest writes committed, by entity kind and outcome.",
		}, []string{"entity", "outcome"}),

		EntityWriteTime: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "entity_write_duration_seconds",
			Help:      "Duration of an entity write, including the change-log append.",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"entity"}),

		ChangeAppends: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "change_log_appends_total",
			Help:      "Total number of change log append attempts, by outcome.",
		}, []string{"outcome"}),

		RetryExhausted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retry_exhausted_total",
			Help:      "Total number of backend calls that exhausted the retry budget, by adapter operation.",
		}, []string{"operation"}),

		RetryAttempts: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retry_attempts_total",
			Help:      "Total number of retry attempts made against the backend, by adapter operation.",
		}, []string{"operation"}),
	}
}

// ObserveWrite records the outcome and duration of an entity write.
func (m *Metrics) ObserveWrite(entity string, ok bool, d time.Duration) {
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	m.EntityWrites.WithLabelValues(entity, outcome).Inc()
	m.EntityWriteTime.WithLabelValues(entity).Observe(d.Seconds())
}

// ObserveChangeAppend records the outcome of a change-log append.
func (m *Metrics) ObserveChangeAppend(ok bool) {
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	m.ChangeAppends.WithLabelValues(outcome).Inc()
}
