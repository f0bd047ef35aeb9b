// Package metrics holds the Prometheus collectors shared by the estimators
// and the HTTP layer.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EstimateDuration measures one intervention estimate.
	// Labels: kind (result, animal-welfare, ghd, xrisk)
	EstimateDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ccm",
		Name:      "estimate_duration_seconds",
		Help:      "Intervention estimate latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"kind"})

	AssessmentDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "ccm",
		Name:      "assessment_duration_seconds",
		Help:      "Research project assessment latency in seconds",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	})

	// PoolCache counts funding pool efficiency lookups.
	// Labels: result (hit, miss)
	PoolCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ccm",
		Name:      "pool_cache_total",
		Help:      "Funding pool efficiency cache lookups",
	}, []string{"result"})

	YearsCreditRounds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "ccm",
		Name:      "years_credit_rejection_rounds",
		Help:      "Rejection rounds needed to draw strictly later extinction years",
		Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100, 500, 1000, 10000},
	})

	Simulations = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ccm",
		Name:      "simulations_total",
		Help:      "Monte Carlo worlds simulated",
	})
)

// ObserveEstimate records the latency of an estimate started at start.
func ObserveEstimate(kind string, start time.Time) {
	EstimateDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}

func CacheHit() {
	PoolCache.WithLabelValues("hit").Inc()
}

func CacheMiss() {
	PoolCache.WithLabelValues("miss").Inc()
}
