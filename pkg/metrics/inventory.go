package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// InventoryMetrics records reservation manager outcomes per operation.
type InventoryMetrics struct {
	duration  *prometheus.HistogramVec
	outcomes  *prometheus.CounterVec
	conflicts *prometheus.CounterVec
}

// NewInventoryMetrics registers the inventory metrics on the provided registerer.
func NewInventoryMetrics(reg prometheus.Registerer) *InventoryMetrics {
	if reg == nil {
		return &InventoryMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "inventory_op_duration_seconds",
		Help:    "Duration of reservation manager operations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_op_total",
		Help: "Reservation manager operations by outcome.",
	}, []string{"op", "outcome"})
	conflicts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_op_conflicts_total",
		Help: "Optimistic lock conflicts encountered, including retried ones.",
	}, []string{"op"})
	reg.MustRegister(duration, outcomes, conflicts)
	return &InventoryMetrics{
		duration:  duration,
		outcomes:  outcomes,
		conflicts: conflicts,
	}
}

// ObserveDuration records the duration of the named operation.
func (m *InventoryMetrics) ObserveDuration(op string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(op)).Observe(duration.Seconds())
}

// IncOutcome increments the outcome counter for the named operation.
func (m *InventoryMetrics) IncOutcome(op, outcome string) {
	if m == nil || m.outcomes == nil {
		return
	}
	m.outcomes.WithLabelValues(normalizeLabel(op), normalizeLabel(outcome)).Inc()
}

// IncConflict increments the conflict counter for the named operation.
func (m *InventoryMetrics) IncConflict(op string) {
	if m == nil || m.conflicts == nil {
		return
	}
	m.conflicts.WithLabelValues(normalizeLabel(op)).Inc()
}
