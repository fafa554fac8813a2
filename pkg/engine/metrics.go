package engine

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the engine's operational counters, exported by daemon mode.
type Metrics struct {
	RunsTotal         prometheus.Counter
	ResourcesAnalyzed prometheus.Counter
	ResourcesDegraded prometheus.Counter
	RunDuration       prometheus.Histogram
	PotentialSavings  prometheus.Gauge
}

// NewMetrics builds and registers the engine collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RunsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cost_advisor",
			Name:      "runs_total",
			Help:      "Number of completed analysis runs.",
		}),
		ResourcesAnalyzed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cost_advisor",
			Name:      "resources_analyzed_total",
			Help:      "Resources that produced a utilization profile.",
		}),
		ResourcesDegraded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cost_advisor",
			Name:      "resources_degraded_total",
			Help:      "Resources degraded to no_action due to missing data.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cost_advisor",
			Name:      "run_duration_seconds",
			Help:      "Wall time of a full analysis run.",
			Buckets:   prometheus.DefBuckets,
		}),
		PotentialSavings: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "cost_advisor",
			Name:      "potential_savings_dollars",
			Help:      "Total potential monthly savings from the last run.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.RunsTotal, m.ResourcesAnalyzed, m.ResourcesDegraded,
			m.RunDuration, m.PotentialSavings)
	}
	return m
}
