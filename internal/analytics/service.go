// Package analytics keeps lightweight in-memory statistics about the query
// workload for the /analytics endpoint.
package analytics

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const maxRecentQueries = 100

// QueryEvent records a single executed query.
type QueryEvent struct {
	QueryID     string    `json:"query_id"`
	Operation   string    `json:"operation"`
	TagCount    int       `json:"tag_count"`
	ResultCount int       `json:"result_count"`
	TookMs      float64   `json:"took_ms"`
	Timestamp   time.Time `json:"timestamp"`
}

// Snapshot is the dashboard view returned by the API.
type Snapshot struct {
	TotalQueries      int64            `json:"total_queries"`
	QueriesByOp       map[string]int64 `json:"queries_by_operation"`
	AverageLatencyMs  float64          `json:"average_latency_ms"`
	EmptyResultShare  float64          `json:"empty_result_share"`
	RecentQueries     []QueryEvent     `json:"recent_queries"`
	TrackedSinceEpoch int64            `json:"tracked_since_unix"`
}

// Service implements query analytics tracking and reporting
type Service struct {
	mu           sync.RWMutex
	total        int64
	emptyResults int64
	byOp         map[string]int64
	totalLatency time.Duration
	recent       []QueryEvent
	since        time.Time
}

// NewService creates a new analytics service
func NewService() *Service {
	return &Service{
		byOp:  make(map[string]int64),
		since: time.Now(),
	}
}

// TrackQuery records a new query event and returns its id.
func (s *Service) TrackQuery(operation string, tagCount, resultCount int, took time.Duration) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	event := QueryEvent{
		QueryID:     uuid.New().String(),
		Operation:   operation,
		TagCount:    tagCount,
		ResultCount: resultCount,
		TookMs:      float64(took.Microseconds()) / 1000.0,
		Timestamp:   time.Now(),
	}

	s.total++
	s.byOp[operation]++
	s.totalLatency += took
	if resultCount == 0 {
		s.emptyResults++
	}

	s.recent = append(s.recent, event)
	if len(s.recent) > maxRecentQueries {
		s.recent = s.recent[len(s.recent)-maxRecentQueries:]
	}

	return event.QueryID
}

// GetSnapshot returns the current analytics dashboard data.
func (s *Service) GetSnapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := Snapshot{
		TotalQueries:      s.total,
		QueriesByOp:       make(map[string]int64, len(s.byOp)),
		RecentQueries:     make([]QueryEvent, len(s.recent)),
		TrackedSinceEpoch: s.since.Unix(),
	}
	for op, n := range s.byOp {
		snapshot.QueriesByOp[op] = n
	}
	copy(snapshot.RecentQueries, s.recent)

	if s.total > 0 {
		snapshot.AverageLatencyMs = float64(s.totalLatency.Microseconds()) / 1000.0 / float64(s.total)
		snapshot.EmptyResultShare = float64(s.emptyResults) / float64(s.total)
	}
	return snapshot
}
