package analytics

import (
	"testing"
	"time"
)

func TestTrackQueryAggregates(t *testing.T) {
	s := NewService()

	id1 := s.TrackQuery("AND", 2, 3, 2*time.Millisecond)
	id2 := s.TrackQuery("AND", 1, 0, 4*time.Millisecond)
	s.TrackQuery("OR", 3, 10, 6*time.Millisecond)

	if id1 == "" || id1 == id2 {
		t.Errorf("query ids not unique: %q vs %q", id1, id2)
	}

	snap := s.GetSnapshot()
	if snap.TotalQueries != 3 {
		t.Errorf("TotalQueries = %d, want 3", snap.TotalQueries)
	}
	if snap.QueriesByOp["AND"] != 2 || snap.QueriesByOp["OR"] != 1 {
		t.Errorf("QueriesByOp = %v", snap.QueriesByOp)
	}
	if snap.AverageLatencyMs < 3.9 || snap.AverageLatencyMs > 4.1 {
		t.Errorf("AverageLatencyMs = %f, want ~4.0", snap.AverageLatencyMs)
	}
	if snap.EmptyResultShare < 0.32 || snap.EmptyResultShare > 0.34 {
		t.Errorf("EmptyResultShare = %f, want ~1/3", snap.EmptyResultShare)
	}
	if len(snap.RecentQueries) != 3 {
		t.Errorf("RecentQueries has %d entries, want 3", len(snap.RecentQueries))
	}
}

func TestRecentQueriesBounded(t *testing.T) {
	s := NewService()
	for i := 0; i < maxRecentQueries+50; i++ {
		s.TrackQuery("OR", 1, 1, time.Millisecond)
	}

	snap := s.GetSnapshot()
	if len(snap.RecentQueries) != maxRecentQueries {
		t.Errorf("RecentQueries has %d entries, want %d", len(snap.RecentQueries), maxRecentQueries)
	}
	if snap.TotalQueries != int64(maxRecentQueries+50) {
		t.Errorf("TotalQueries = %d, want %d", snap.TotalQueries, maxRecentQueries+50)
	}
}

func TestEmptySnapshot(t *testing.T) {
	snap := NewService().GetSnapshot()
	if snap.TotalQueries != 0 || snap.AverageLatencyMs != 0 || len(snap.RecentQueries) != 0 {
		t.Errorf("empty snapshot = %+v", snap)
	}
}
