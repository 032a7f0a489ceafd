package cacheguard

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains Prometheus metrics for the cache guard. All observe
// methods are nil-safe so the guard works without metrics wired.
type Metrics struct {
	validations  *prometheus.CounterVec
	selfHeals    prometheus.Counter
	sweepRuns    prometheus.Counter
	sweepRemoved prometheus.Counter
}

// NewMetrics creates a Metrics instance registered with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	return &Metrics{
		validations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aigate_cache_validations_total",
				Help: "Total number of cache payload validations",
			},
			[]string{"content_type", "result"},
		),

		selfHeals: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "aigate_cache_self_heals_total",
				Help: "Total number of invalid entries dropped on read",
			},
		),

		sweepRuns: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "aigate_cache_sweep_runs_total",
				Help: "Total number of completed sweep passes",
			},
		),

		sweepRemoved: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "aigate_cache_sweep_removed_total",
				Help: "Total number of entries removed by sweeps",
			},
		),
	}
}

func (m *Metrics) observeValidation(contentType ContentType, valid bool) {
	if m == nil {
		return
	}
	result := "valid"
	if !valid {
		result = "invalid"
	}
	m.validations.WithLabelValues(string(contentType), result).Inc()
}

func (m *Metrics) observeSelfHeal() {
	if m == nil {
		return
	}
	m.selfHeals.Inc()
}

func (m *Metrics) observeSweep(removed int) {
	if m == nil {
		return
	}
	m.sweepRuns.Inc()
	m.sweepRemoved.Add(float64(removed))
}
