package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RowsTotal counts persisted-row outcomes per source. outcome is
	// "inserted" (net-new row) or "skipped" (duplicate or rejected).
	RowsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ingester",
		Name:      "rows_total",
		Help:      "Rows processed per source and outcome",
	}, []string{"source", "outcome"})

	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ingester",
		Name:      "runs_total",
		Help:      "Adapter runs per source and status",
	}, []string{"source", "status"})

	RunDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ingester",
		Name:      "run_duration_seconds",
		Help:      "Wall-clock duration of one adapter run",
		Buckets:   prometheus.ExponentialBuckets(0.25, 2, 12),
	}, []string{"source"})

	EnrichmentAttempts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ingester",
		Name:      "enrichment_attempts_total",
		Help:      "Headline enrichment fetches attempted",
	})

	EnrichmentHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ingester",
		Name:      "enrichment_hits_total",
		Help:      "Headline enrichment fetches that yielded a title",
	})

	// SignalSeverity tracks the auxiliary tone-derived severity of incoming
	// news signals. The value is not persisted on the signal itself.
	SignalSeverity = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ingester",
		Name:      "signal_severity_total",
		Help:      "News signals bucketed by tone-derived severity",
	}, []string{"severity"})
)
