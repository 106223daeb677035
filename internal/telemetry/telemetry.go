// Package telemetry registers the Prometheus collectors for the worker and
// the platform fetch path.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CyclesTotal counts worker cycles by outcome (ok, error, busy).
	CyclesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "trand",
		Subsystem: "worker",
		Name:      "cycles_total",
		Help:      "Worker cycles by outcome.",
	}, []string{"outcome"})

	// CycleDuration observes full cycle latency.
	CycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "trand",
		Subsystem: "worker",
		Name:      "cycle_duration_seconds",
		Help:      "Worker cycle duration.",
		Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
	})

	// VideosProcessed counts persisted videos by viral flag.
	VideosProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "trand",
		Subsystem: "worker",
		Name:      "videos_processed_total",
		Help:      "Videos persisted per cycle outcome.",
	}, []string{"viral"})

	// VideosSkipped counts duplicate-skipped inserts.
	VideosSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "trand",
		Subsystem: "worker",
		Name:      "videos_skipped_total",
		Help:      "Inserts skipped as duplicates.",
	})

	// FetchedVideos counts raw fetched videos per platform.
	FetchedVideos = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "trand",
		Subsystem: "collector",
		Name:      "fetched_videos_total",
		Help:      "Videos fetched before dedup, per platform.",
	}, []string{"platform"})

	// PlatformErrors counts per-platform fetch failures.
	PlatformErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "trand",
		Subsystem: "collector",
		Name:      "platform_errors_total",
		Help:      "Platform fetch failures, per platform.",
	}, []string{"platform"})

	// GateDecisions counts quality gate verdicts by reason.
	GateDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "trand",
		Subsystem: "gate",
		Name:      "decisions_total",
		Help:      "Quality gate accepts by decision reason.",
	}, []string{"reason"})
)
