package services

import (
	"github.com/gcbaptista/tagdex/index"
)

// QueryResult represents the response to a tag query.
type QueryResult struct {
	QueryID   string   `json:"query_id"`
	Operation string   `json:"operation"`
	Documents []string `json:"documents"`
	Count     int      `json:"count"`
	TookMs    float64  `json:"took_ms"`
}

// Stats summarizes the index state.
type Stats struct {
	DocumentCount       int    `json:"document_count"`
	TagCount            int    `json:"tag_count"`
	LastProcessedOffset uint64 `json:"last_processed_offset"`
}

// TagQuerier defines read operations over the index
type TagQuerier interface {
	Query(tags []string, op index.Operation) []string
	TagsFor(doc string) []string
	DocumentCount() int
	TagCount() int
}

// Ingester defines the incremental ingestion operation
type Ingester interface {
	LoadIncremental(optimizeAfter bool) error
}

// Checkpointer defines checkpoint save and restore
type Checkpointer interface {
	Save(dir string) error
	Load(dir string) error
}

// IndexManager is the full engine surface the API and CLI operate on
type IndexManager interface {
	TagQuerier
	Ingester
	Checkpointer
	LastProcessedOffset() index.FileOffset
}
