package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search Prometheus metrics.
var (
	SearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "extdex",
			Name:      "searches_total",
			Help:      "Total number of search requests",
		},
		[]string{"backend", "status"},
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "extdex",
			Name:      "search_duration_seconds",
			Help:      "Search request duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"backend"},
	)

	IndexRebuildsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "extdex",
			Name:      "index_rebuilds_total",
			Help:      "Total number of search index rebuilds",
		},
		[]string{"mode", "status"}, // mode: "soft" / "hard"
	)

	IndexRebuildDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "extdex",
			Name:      "index_rebuild_duration_seconds",
			Help:      "Search index rebuild duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
		},
	)

	IndexEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "extdex",
			Name:      "index_events_total",
			Help:      "Total registry change events applied to the search index",
		},
		[]string{"event", "status"}, // event: "changed" / "removed"
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers Prometheus search metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchesTotal)
	prometheus.MustRegister(SearchDuration)
	prometheus.MustRegister(IndexRebuildsTotal)
	prometheus.MustRegister(IndexRebuildDuration)
	prometheus.MustRegister(IndexEventsTotal)
	searchMetricsRegistered = true
}
