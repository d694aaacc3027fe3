package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ParsingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "importfix_parsing_seconds",
		Help:    "Time spent parsing a source file.",
		Buckets: prometheus.DefBuckets,
	}, []string{"language"})

	AnalysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "importfix_analysis_seconds",
		Help:    "Time spent in each analysis phase.",
		Buckets: prometheus.DefBuckets,
	}, []string{"phase"})

	FilesDiscoveredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "importfix_files_discovered_total",
		Help: "Total number of source files found by discovery.",
	})

	IssuesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "importfix_issues_total",
		Help: "Total number of recoverable failures by error code.",
	}, []string{"code"})

	ParseCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "importfix_parse_cache_hits_total",
		Help: "Total number of files reused from an earlier parse.",
	})

	IndexSymbols = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "importfix_index_symbols",
		Help: "Number of distinct symbol names in the last built index.",
	})

	IndexModules = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "importfix_index_modules",
		Help: "Number of modules contributing to the last built index.",
	})

	MissingImportsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "importfix_missing_imports_total",
		Help: "Total number of missing imports detected.",
	})

	UnresolvedSymbolsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "importfix_unresolved_symbols_total",
		Help: "Total number of used names with no defining module in the project.",
	})

	FixWritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "importfix_fix_writes_total",
		Help: "Total number of file rewrites by outcome.",
	}, []string{"status"})

	FixWriteDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "importfix_fix_write_seconds",
		Help:    "Latency for rewriting a single file.",
		Buckets: prometheus.DefBuckets,
	})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "importfix_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})
)

// WriteMetricsFile dumps the default registry in the Prometheus text
// format, suitable for the node_exporter textfile collector.
func WriteMetricsFile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
