package engine

import (
	"github.com/consorcio/backend/internal/models"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the Prometheus metrics of the engine.
type Metrics struct {
	obligationsGenerated   prometheus.Counter
	obligationsOverdue     prometheus.Counter
	paymentsRecorded       *prometheus.CounterVec
	contemplationsCreated  *prometheus.CounterVec
	contemplationsUnplaced prometheus.Counter
	sweepDuration          prometheus.Histogram
}

func NewMetrics() *Metrics {
	return &Metrics{
		obligationsGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "consortium_obligations_generated_total",
			Help: "How many obligations have been generated.",
		}),
		obligationsOverdue: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "consortium_obligations_overdue_total",
			Help: "How many obligations the overdue sweep marked as overdue.",
		}),
		paymentsRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "consortium_payments_recorded_total",
			Help: "How many payments have been recorded, partitioned by the resulting obligation status.",
		}, []string{"status"}),
		contemplationsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "consortium_contemplations_created_total",
			Help: "How many contemplations have been created, partitioned by contemplation type.",
		}, []string{"type"}),
		contemplationsUnplaced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "consortium_contemplations_unplaced_total",
			Help: "How many quota slots automatic allocation could not place because no month was left.",
		}),
		sweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "consortium_sweep_duration_seconds",
			Help: "The duration of overdue sweeps in seconds.",
		}),
	}
}

// Collectors returns all collectors so they can be registered.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.obligationsGenerated,
		m.obligationsOverdue,
		m.paymentsRecorded,
		m.contemplationsCreated,
		m.contemplationsUnplaced,
		m.sweepDuration,
	}
}

func (m *Metrics) contemplated(t models.ContemplationType, n int) {
	m.contemplationsCreated.WithLabelValues(string(t)).Add(float64(n))
}
