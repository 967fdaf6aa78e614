package cachedresults

import (
	"sync/atomic"
	"time"
)

// Stats counts cache hits, misses and failed fetches since the last reset.
// Safe for concurrent use.
type Stats struct {
	hits   atomic.Int64
	misses atomic.Int64
	errors atomic.Int64
	since  atomic.Int64
}

type StatsSnapshot struct {
	Hits     int64     `json:"hits"`
	Misses   int64     `json:"misses"`
	Errors   int64     `json:"errors"`
	Total    int64     `json:"total"`
	HitRatio float64   `json:"hitRatio"`
	Since    time.Time `json:"since"`
}

func NewStats() *Stats {
	s := &Stats{}
	s.since.Store(time.Now().UnixNano())

	return s
}

func (s *Stats) Snapshot() StatsSnapshot {
	snapshot := StatsSnapshot{
		Hits:   s.hits.Load(),
		Misses: s.misses.Load(),
		Errors: s.errors.Load(),
		Since:  time.Unix(0, s.since.Load()).UTC(),
	}

	snapshot.Total = snapshot.Hits + snapshot.Misses
	if snapshot.Total > 0 {
		snapshot.HitRatio = float64(snapshot.Hits) / float64(snapshot.Total)
	}

	return snapshot
}

// Reset zeroes the counters and returns the values they held
func (s *Stats) Reset() StatsSnapshot {
	previous := s.Snapshot()

	s.hits.Store(0)
	s.misses.Store(0)
	s.errors.Store(0)
	s.since.Store(time.Now().UnixNano())

	return previous
}
