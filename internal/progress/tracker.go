// Package progress aggregates per-segment completions into a consistent
// batch-level view.
package progress

import (
	"sync"
	"time"

	"github.com/eleven-am/gohls/internal/domain"
)

// windowSize bounds the moving window used for rate and ETA estimates.
const windowSize = 32

type sample struct {
	at    time.Time
	bytes int64
}

// Tracker counts terminal segment outcomes and estimates throughput from a
// moving window of recent completions. All methods are safe for concurrent
// use.
type Tracker struct {
	mu        sync.Mutex
	total     int
	completed int
	failed    int
	bytes     int64
	current   string
	window    []sample
	now       func() time.Time
}

func NewTracker(total int) *Tracker {
	return &Tracker{total: total, now: time.Now}
}

// SetCurrent records the most recently admitted segment label. Best-effort:
// under concurrency the label lags the newest admission.
func (t *Tracker) SetCurrent(label string) {
	t.mu.Lock()
	t.current = label
	t.mu.Unlock()
}

// Record counts one terminal outcome. Successes contribute their byte count
// to the rate window; failures contribute to the completion rate only.
func (t *Tracker) Record(out domain.Outcome) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if out.State == domain.OutcomeSuccess {
		t.completed++
		t.bytes += out.BytesWritten
	} else {
		t.failed++
	}

	t.window = append(t.window, sample{at: t.now(), bytes: out.BytesWritten})
	if len(t.window) > windowSize {
		t.window = t.window[1:]
	}
}

// Snapshot returns a consistent copy of the current state. ETASeconds is -1
// until at least two completions are in the window.
func (t *Tracker) Snapshot() domain.Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap := domain.Snapshot{
		Total:        t.total,
		Completed:    t.completed,
		Failed:       t.failed,
		BytesWritten: t.bytes,
		ETASeconds:   -1,
		Current:      t.current,
	}

	if len(t.window) < 2 {
		return snap
	}

	elapsed := t.window[len(t.window)-1].at.Sub(t.window[0].at).Seconds()
	if elapsed <= 0 {
		return snap
	}

	// The window spans first to last completion, so the first sample's
	// bytes arrived before the measured interval and are left out.
	var windowBytes int64
	for _, s := range t.window[1:] {
		windowBytes += s.bytes
	}
	snap.BytesPerSecond = float64(windowBytes) / elapsed

	segPerSecond := float64(len(t.window)-1) / elapsed
	remaining := t.total - t.completed - t.failed
	if remaining > 0 && segPerSecond > 0 {
		snap.ETASeconds = float64(remaining) / segPerSecond
	}

	return snap
}
