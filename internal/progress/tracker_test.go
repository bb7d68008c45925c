package progress

import (
	"sync"
	"testing"
	"time"

	"github.com/eleven-am/gohls/internal/domain"
)

func TestCountsUnderConcurrency(t *testing.T) {
	const n = 200
	tr := NewTracker(n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			seg := domain.Segment{Index: i}
			if i%4 == 0 {
				tr.Record(domain.Fatal(seg, nil))
			} else {
				tr.Record(domain.Success(seg, 1024, "path"))
			}
		}(i)
	}
	wg.Wait()

	snap := tr.Snapshot()
	if snap.Completed+snap.Failed != n {
		t.Errorf("expected completed+failed == %d, got %d", n, snap.Completed+snap.Failed)
	}
	if snap.Failed != n/4 {
		t.Errorf("expected %d failed, got %d", n/4, snap.Failed)
	}
	if !snap.Done() {
		t.Error("expected snapshot to report done")
	}
}

func TestRateAndETA(t *testing.T) {
	tr := NewTracker(10)

	// Deterministic clock: one completion per second, 1000 bytes each.
	base := time.Unix(1700000000, 0)
	tick := 0
	tr.now = func() time.Time {
		ts := base.Add(time.Duration(tick) * time.Second)
		tick++
		return ts
	}

	for i := 0; i < 5; i++ {
		tr.Record(domain.Success(domain.Segment{Index: i}, 1000, "path"))
	}

	snap := tr.Snapshot()
	// 4 seconds elapsed across the window; the first sample's bytes fall
	// outside it, leaving 4000 bytes / 4s.
	if snap.BytesPerSecond != 1000 {
		t.Errorf("expected 1000 bytes/s, got %v", snap.BytesPerSecond)
	}
	// 4 completions per 4 seconds, 5 remaining.
	if snap.ETASeconds != 5 {
		t.Errorf("expected ETA 5s, got %v", snap.ETASeconds)
	}
}

func TestNoEstimateBeforeTwoSamples(t *testing.T) {
	tr := NewTracker(3)
	tr.Record(domain.Success(domain.Segment{Index: 0}, 100, "path"))

	snap := tr.Snapshot()
	if snap.BytesPerSecond != 0 {
		t.Errorf("expected no rate estimate, got %v", snap.BytesPerSecond)
	}
	if snap.ETASeconds != -1 {
		t.Errorf("expected ETA -1, got %v", snap.ETASeconds)
	}
}

func TestSetCurrent(t *testing.T) {
	tr := NewTracker(2)
	tr.SetCurrent("segment 1")

	if got := tr.Snapshot().Current; got != "segment 1" {
		t.Errorf("expected current label, got %q", got)
	}
}
