package batch

import "sync"

// PointStats aggregates per-trace sample counts for the end-of-batch
// summary. For every trace, InvalidField + InvalidGeo +
// InvalidHeading + CriticalPoints + PrivacyPoints + Emitted equals
// Total, the raw row count.
type PointStats struct {
	Total          int64
	InvalidField   int64
	InvalidGeo     int64
	InvalidHeading int64
	CriticalPoints int64
	PrivacyPoints  int64
	Emitted        int64
}

// Add accumulates other into s.
func (s *PointStats) Add(other PointStats) {
	s.Total += other.Total
	s.InvalidField += other.InvalidField
	s.InvalidGeo += other.InvalidGeo
	s.InvalidHeading += other.InvalidHeading
	s.CriticalPoints += other.CriticalPoints
	s.PrivacyPoints += other.PrivacyPoints
	s.Emitted += other.Emitted
}

// counter is the cross-worker stats sink, updated once per completed
// trace under a mutex.
type counter struct {
	mu    sync.Mutex
	stats PointStats
}

func (c *counter) add(s PointStats) {
	c.mu.Lock()
	c.stats.Add(s)
	c.mu.Unlock()
}

func (c *counter) snapshot() PointStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}
