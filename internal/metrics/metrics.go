// Package metrics exposes prometheus collectors for ingestion and query
// activity. Collectors register on the default registry and are served by
// the API's /metrics endpoint.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RecordsIngested counts records applied to the indices.
	RecordsIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tagdex_ingest_records_total",
		Help: "Total number of records applied to the indices.",
	})

	// MalformedLines counts skipped lines with an empty document field.
	MalformedLines = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tagdex_ingest_malformed_lines_total",
		Help: "Total number of malformed data-file lines skipped.",
	})

	// BytesIngested counts data-file bytes consumed by ingestion passes.
	BytesIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tagdex_ingest_bytes_total",
		Help: "Total number of data-file bytes consumed.",
	})

	// IngestDuration observes wall time of incremental ingestion passes.
	IngestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tagdex_ingest_duration_seconds",
		Help:    "Duration of incremental ingestion passes.",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
	})

	// QueriesTotal counts queries by set-algebra operation.
	QueriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tagdex_queries_total",
		Help: "Total number of tag queries by operation.",
	}, []string{"operation"})

	// QueryDuration observes query latency.
	QueryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tagdex_query_duration_seconds",
		Help:    "Duration of tag queries.",
		Buckets: prometheus.ExponentialBuckets(0.00001, 4, 12),
	})
)

// ObserveIngest records one completed ingestion pass.
func ObserveIngest(records, malformed int, bytes uint64, took time.Duration) {
	RecordsIngested.Add(float64(records))
	MalformedLines.Add(float64(malformed))
	BytesIngested.Add(float64(bytes))
	IngestDuration.Observe(took.Seconds())
}

// ObserveQuery records one completed query.
func ObserveQuery(operation string, took time.Duration) {
	QueriesTotal.WithLabelValues(operation).Inc()
	QueryDuration.Observe(took.Seconds())
}
