// Package metrics exposes the engine's Prometheus instrumentation. All
// collectors are registered on the default registry at package load and
// shared process-wide.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Trigger pipeline.

	RuleFired = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flashpoint_rule_fired_total",
			Help: "Times each trigger rule fired during evaluation",
		},
		[]string{"rule"},
	)

	EventsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flashpoint_events_created_total",
			Help: "Security events created, by event type",
		},
		[]string{"type"},
	)

	GenerationSkips = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flashpoint_generation_skips_total",
			Help: "Per-country runs that ended without an event, by reason",
		},
		[]string{"reason"},
	)

	NotifyFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "flashpoint_notify_failures_total",
			Help: "Announcements that could not be delivered",
		},
	)

	// Batch runner.

	BatchRuns = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "flashpoint_batch_runs_total",
			Help: "Completed batch sweeps",
		},
	)

	BatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "flashpoint_batch_duration_seconds",
			Help:    "Wall time of one batch sweep",
			Buckets: prometheus.DefBuckets,
		},
	)

	CountriesProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "flashpoint_countries_processed_total",
			Help: "Countries evaluated across all batch sweeps",
		},
	)

	CountryErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "flashpoint_country_errors_total",
			Help: "Countries whose processing failed inside a batch sweep",
		},
	)

	// History store.

	StoreQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "flashpoint_store_query_duration_seconds",
			Help:    "Duration of event store operations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)
