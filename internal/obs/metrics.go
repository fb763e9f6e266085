package obs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all metrics emitted by an open index, registered on a
// Registry private to this Metrics instance rather than the global
// default registerer. Two metrics-enabled Databases in one process each
// get their own Registry, so neither panics on duplicate registration of
// the other's metric names.
type Metrics struct {
	Registry *prometheus.Registry

	VectorInserts prometheus.Counter
	VectorDeletes prometheus.Counter
	SearchQueries prometheus.Counter
	SearchErrors  prometheus.Counter
	SearchLatency prometheus.Histogram
	InsertLatency prometheus.Histogram
	DeleteLatency prometheus.Histogram
	StorageGrowth prometheus.Counter
}

// NewMetrics creates a metrics instance backed by its own registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	fac := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		VectorInserts: fac.NewCounter(prometheus.CounterOpts{
			Name: "lmdiskann_vector_inserts_total",
			Help: "Total vector insertions",
		}),
		VectorDeletes: fac.NewCounter(prometheus.CounterOpts{
			Name: "lmdiskann_vector_deletes_total",
			Help: "Total vector deletions",
		}),
		SearchQueries: fac.NewCounter(prometheus.CounterOpts{
			Name: "lmdiskann_search_queries_total",
			Help: "Total search queries",
		}),
		SearchErrors: fac.NewCounter(prometheus.CounterOpts{
			Name: "lmdiskann_search_errors_total",
			Help: "Total search errors",
		}),
		SearchLatency: fac.NewHistogram(prometheus.HistogramOpts{
			Name: "lmdiskann_search_latency_seconds",
			Help: "Search latency",
		}),
		InsertLatency: fac.NewHistogram(prometheus.HistogramOpts{
			Name: "lmdiskann_insert_latency_seconds",
			Help: "Insert latency, including traversal and back-patching",
		}),
		DeleteLatency: fac.NewHistogram(prometheus.HistogramOpts{
			Name: "lmdiskann_delete_latency_seconds",
			Help: "Delete latency, including reverse-edge scrub",
		}),
		StorageGrowth: fac.NewCounter(prometheus.CounterOpts{
			Name: "lmdiskann_storage_growth_total",
			Help: "Total mmap remap-on-growth events across vector and adjacency files",
		}),
	}
}
