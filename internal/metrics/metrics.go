// Package metrics provides the centralized Prometheus registry for the
// value scanner.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	SnapshotsAnalyzedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "value_scanner",
		Name:      "snapshots_analyzed_total",
		Help:      "Total number of odds snapshots analyzed",
	})
	ValueSignalsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "value_scanner",
		Name:      "value_signals_total",
		Help:      "Total number of value signals emitted",
	}, []string{"kind"})
	EdgeOpportunitiesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "value_scanner",
		Name:      "edge_opportunities_total",
		Help:      "Total number of market edge opportunities detected",
	})
	StakePlansTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "value_scanner",
		Name:      "stake_plans_total",
		Help:      "Total number of dutching stake plans produced",
	})
	RunnersSkippedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "value_scanner",
		Name:      "runners_skipped_total",
		Help:      "Total number of runners skipped due to name reconciliation failures",
	})
	BookmakersSkippedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "value_scanner",
		Name:      "bookmakers_skipped_total",
		Help:      "Total number of bookmaker price sets rejected as invalid",
	})
	FeedFetchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "value_scanner",
		Name:      "feed_fetches_total",
		Help:      "Total number of odds feed fetches by outcome",
	}, []string{"outcome"})
)

// Gauge metrics
var (
	RacesTracked = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "value_scanner",
		Name:      "races_tracked",
		Help:      "Number of races in the current scan set",
	})
	CachedAnalyses = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "value_scanner",
		Name:      "cached_analyses",
		Help:      "Number of race analyses currently cached",
	})
	LastScanUnixTime = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "value_scanner",
		Name:      "last_scan_unix_time",
		Help:      "Unix timestamp of the most recent completed scan",
	})
)

// Histogram metrics
var (
	AnalysisDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "value_scanner",
		Name:      "analysis_duration_seconds",
		Help:      "Time spent analyzing a single snapshot",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
	})
	ScanDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "value_scanner",
		Name:      "scan_duration_seconds",
		Help:      "Time spent on a full scan cycle",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
	})
)

// Registry returns the global metrics registry, registering all
// collectors on first use.
func Registry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			SnapshotsAnalyzedTotal,
			ValueSignalsTotal,
			EdgeOpportunitiesTotal,
			StakePlansTotal,
			RunnersSkippedTotal,
			BookmakersSkippedTotal,
			FeedFetchesTotal,
			RacesTracked,
			CachedAnalyses,
			LastScanUnixTime,
			AnalysisDuration,
			ScanDuration,
		)
	})
	return registry
}

// Handler returns an HTTP handler serving the registry
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry(), promhttp.HandlerOpts{})
}
