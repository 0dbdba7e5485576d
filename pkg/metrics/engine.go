package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	Appends = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "logdb_appends_total",
		Help: "Total number of records appended to the log",
	})

	Gets = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "logdb_gets_total",
		Help: "Total number of point reads served",
	})

	Deletes = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "logdb_deletes_total",
		Help: "Total number of records tombstoned",
	})

	DuplicateRejects = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "logdb_duplicate_rejects_total",
		Help: "Appends rejected because a live record already holds the key",
	})

	TombstoneReuse = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "logdb_tombstone_reuse_total",
		Help: "Appends that reused a tombstoned index slot",
	})

	PageLoads = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "logdb_page_loads_total",
		Help: "Index pages loaded into the resident page buffer",
	})

	PageFlushes = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "logdb_page_flushes_total",
		Help: "Dirty index pages written back to disk",
	})

	PageSpills = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "logdb_page_spills_total",
		Help: "Overflow insertions that carried an entry into the next page",
	})

	AppendLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "logdb_append_latency_seconds",
		Help:    "Histogram of append latency including the index update",
		Buckets: prometheus.DefBuckets,
	})

	IndexEntries = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "logdb_index_entries",
		Help: "Current number of index entries (tombstones included)",
	})
)
