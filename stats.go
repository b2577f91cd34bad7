package texcache

import "fmt"

// Stats contains cache statistics for monitoring.
type Stats struct {
	// ResidentCount is the number of resident textures.
	ResidentCount int
	// CurrentBytes is the accounted GPU memory in use.
	CurrentBytes uint64
	// BudgetBytes is the configured memory budget.
	BudgetBytes uint64
	// QueueLen is the number of pending load requests.
	QueueLen int
	// InFlight is the number of requests being decoded right now.
	InFlight int
	// Hits is the number of cache hits.
	Hits uint64
	// Misses is the number of cache misses.
	Misses uint64
	// Evictions is the number of entries evicted.
	Evictions uint64
	// SoftOverflows counts insertions that proceeded over budget because
	// every resident entry was protected.
	SoftOverflows uint64
	// DecodeFailures counts dropped requests whose source failed to decode.
	DecodeFailures uint64
}

// Utilization returns the fraction of the budget in use, 0.0 to 1.0+
// (soft overflow can push it past 1.0).
func (s Stats) Utilization() float64 {
	if s.BudgetBytes == 0 {
		return 0
	}
	return float64(s.CurrentBytes) / float64(s.BudgetBytes)
}

// String returns a human-readable summary.
func (s Stats) String() string {
	return fmt.Sprintf("TexCache[%.1f%% used, %d/%d MB, %d resident, %d queued, %d hits, %d misses, %d evictions]",
		s.Utilization()*100,
		s.CurrentBytes/(1024*1024),
		s.BudgetBytes/(1024*1024),
		s.ResidentCount,
		s.QueueLen,
		s.Hits,
		s.Misses,
		s.Evictions)
}
