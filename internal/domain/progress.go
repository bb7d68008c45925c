package domain

// Snapshot is a consistent view of batch progress. ETASeconds is negative
// while no estimate is available. Current names the most recently admitted
// segment and is best-effort only.
type Snapshot struct {
	Total          int
	Completed      int
	Failed         int
	BytesWritten   int64
	BytesPerSecond float64
	ETASeconds     float64
	Current        string
}

// Done reports whether every segment has reached a terminal state.
func (s Snapshot) Done() bool {
	return s.Completed+s.Failed >= s.Total
}
