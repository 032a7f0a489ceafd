package guard

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains Prometheus metrics for the governance pipeline. All
// observe methods are nil-safe so the manager works without metrics
// wired.
type Metrics struct {
	checks      *prometheus.CounterVec
	rejections  *prometheus.CounterVec
	budgetUsage *prometheus.GaugeVec

	checkDuration prometheus.Histogram
}

// NewMetrics creates a Metrics instance registered with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	return &Metrics{
		checks: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aigate_checks_total",
				Help: "Total number of authorization checks performed",
			},
			[]string{"capability", "result"},
		),

		rejections: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aigate_rejections_total",
				Help: "Total number of rejected calls by reason",
			},
			[]string{"capability", "reason"},
		),

		budgetUsage: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "aigate_budget_usage_ratio",
				Help: "Daily budget usage as a fraction of the ceiling (0.0-1.0)",
			},
			[]string{"tier"},
		),

		checkDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "aigate_check_duration_seconds",
				Help:    "Authorization check latency",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
}

func (m *Metrics) observeCheck(capability string, allowed bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	result := "allowed"
	if !allowed {
		result = "rejected"
	}
	m.checks.WithLabelValues(capability, result).Inc()
	m.checkDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) observeRejection(capability, reason string) {
	if m == nil {
		return
	}
	m.rejections.WithLabelValues(capability, reason).Inc()
}

func (m *Metrics) observeBudgetUsage(tier string, ratio float64) {
	if m == nil {
		return
	}
	m.budgetUsage.WithLabelValues(tier).Set(ratio)
}
