package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	InspectDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "supdoc_inspect_seconds",
		Help:    "Time spent in one top-level inspection.",
		Buckets: prometheus.DefBuckets,
	}, []string{"entry"})

	ObjectsInspected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "supdoc_objects_inspected_total",
		Help: "Total number of objects fully expanded into objdocs.",
	})

	RefsEmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "supdoc_refs_emitted_total",
		Help: "Total number of refs emitted in place of full expansions.",
	})

	TraversalCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "supdoc_traversal_cache_hits_total",
		Help: "Total number of traversal cache hits within top-level inspections.",
	})

	ImportFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "supdoc_import_failures_total",
		Help: "Total number of module imports that failed.",
	})

	DiskCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "supdoc_disk_cache_hits_total",
		Help: "Total number of objdoc disk cache hits.",
	})

	DiskCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "supdoc_disk_cache_misses_total",
		Help: "Total number of objdoc disk cache misses.",
	})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "supdoc_http_requests_total",
		Help: "Total number of HTTP requests served, by handler and code.",
	}, []string{"handler", "code"})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "supdoc_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})
)
