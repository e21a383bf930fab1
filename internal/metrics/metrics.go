// Package metrics records store and sync operation metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "carestore"

// Recorder receives the outcome of store operations.
type Recorder interface {
	// ObserveOperation records one operation (add_tasks, merge_revisions, sync...).
	ObserveOperation(store, op string, success bool, duration time.Duration)
	// AddConflicts records conflicts resolved during a merge.
	AddConflicts(store, kind string, n int)
}

// Noop discards everything.
type Noop struct{}

func (Noop) ObserveOperation(string, string, bool, time.Duration) {}
func (Noop) AddConflicts(string, string, int)                     {}

// Metrics holds the Prometheus collectors
type Metrics struct {
	OperationDuration *prometheus.HistogramVec
	OperationsTotal   *prometheus.CounterVec
	ConflictsTotal    *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
// A nil reg registers with the default registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		// Buckets: 100us .. 2.5s
		OperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Duration of store operations in seconds",
				Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1, 2.5},
			},
			[]string{"store", "operation"},
		),
		OperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Total number of store operations",
			},
			[]string{"store", "operation", "status"},
		),
		ConflictsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sync_conflicts_total",
				Help:      "Total number of concurrent edits resolved during merges",
			},
			[]string{"store", "kind"},
		),
	}
}

// ObserveOperation implements Recorder
func (m *Metrics) ObserveOperation(store, op string, success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "error"
	}
	m.OperationDuration.WithLabelValues(store, op).Observe(duration.Seconds())
	m.OperationsTotal.WithLabelValues(store, op, status).Inc()
}

// AddConflicts implements Recorder
func (m *Metrics) AddConflicts(store, kind string, n int) {
	if n <= 0 {
		return
	}
	m.ConflictsTotal.WithLabelValues(store, kind).Add(float64(n))
}
