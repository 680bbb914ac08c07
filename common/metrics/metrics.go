// Package metrics holds the Prometheus collectors shared by the pipeline,
// the sync loop and the trace logger. Collectors register on the default
// registry; the server exposes them at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "herald",
			Subsystem: "pipeline",
			Name:      "events_total",
			Help:      "Events that completed a pipeline run, by origin and outcome.",
		},
		[]string{"origin", "outcome"},
	)

	HandlerDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "herald",
			Subsystem: "pipeline",
			Name:      "handler_duration_seconds",
			Help:      "Time spent in each pipeline handler.",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5},
		},
		[]string{"handler"},
	)

	HandlerFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "herald",
			Subsystem: "pipeline",
			Name:      "handler_failures_total",
			Help:      "Handler errors and panics, split by criticality.",
		},
		[]string{"handler", "critical"},
	)

	BroadcastDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "herald",
			Subsystem: "pipeline",
			Name:      "broadcast_dropped_total",
			Help:      "Results evicted from a full subscriber buffer.",
		},
	)

	TraceDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "herald",
			Subsystem: "trace",
			Name:      "dropped_total",
			Help:      "Trace events that fell back to slog instead of the store.",
		},
		[]string{"reason"},
	)

	TokenRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "herald",
			Subsystem: "provider",
			Name:      "token_refreshes_total",
			Help:      "Network token refresh attempts by provider and result.",
		},
		[]string{"provider", "result"},
	)

	MessagesFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "herald",
			Subsystem: "poller",
			Name:      "messages_fetched_total",
			Help:      "Remote messages fetched per provider.",
		},
		[]string{"provider"},
	)

	PollFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "herald",
			Subsystem: "poller",
			Name:      "failures_total",
			Help:      "Per-provider poll failures.",
		},
		[]string{"provider"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "herald",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route and status class.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	HTTPPanics = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "herald",
			Subsystem: "http",
			Name:      "panics_total",
			Help:      "Handler panics caught by the recovery middleware.",
		},
	)
)
