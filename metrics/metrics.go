// Package metrics exposes the engine's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	GenerationRuns = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "optimizer_generation_runs_total",
			Help: "Total number of daily generation runs.",
		},
	)
	PagesScored = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "optimizer_pages_scored_total",
			Help: "Total number of pages scored across all runs.",
		},
	)
	PageFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "optimizer_page_failures_total",
			Help: "Total number of pages skipped due to analysis or scoring failures.",
		},
	)
	RecommendationsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "optimizer_recommendations_created_total",
			Help: "Total number of daily recommendations persisted.",
		},
	)
	GenerationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "optimizer_generation_duration_seconds",
			Help:    "Duration of daily generation runs in seconds.",
			Buckets: prometheus.DefBuckets,
		},
	)
	LastGeneration = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "optimizer_last_generation_timestamp_seconds",
			Help: "Unix timestamp of the last completed generation run.",
		},
	)
)

func init() {
	prometheus.MustRegister(GenerationRuns)
	prometheus.MustRegister(PagesScored)
	prometheus.MustRegister(PageFailures)
	prometheus.MustRegister(RecommendationsCreated)
	prometheus.MustRegister(GenerationDuration)
	prometheus.MustRegister(LastGeneration)
}
