// Package schedule runs a batch of segment downloads under a concurrency
// bound.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/eleven-am/gohls/internal/domain"
	"github.com/eleven-am/gohls/internal/progress"
)

// Scheduler admits segments in manifest order, never more than limit in
// flight. Completion order is unconstrained; results are indexed by
// Segment.Index. One segment failing does not stop the batch.
type Scheduler struct {
	limit    int64
	fetcher  domain.Fetcher
	tracker  *progress.Tracker
	onUpdate func(domain.Snapshot)
	logger   *slog.Logger
}

// New builds a Scheduler. onUpdate may be nil; when set it receives a
// snapshot after every terminal outcome.
func New(limit int, fetcher domain.Fetcher, tracker *progress.Tracker, onUpdate func(domain.Snapshot), logger *slog.Logger) *Scheduler {
	if limit < 1 {
		limit = 1
	}
	return &Scheduler{
		limit:    int64(limit),
		fetcher:  fetcher,
		tracker:  tracker,
		onUpdate: onUpdate,
		logger:   logger,
	}
}

// Run downloads every segment, writing each to destFor(seg). It returns one
// outcome per segment, positioned at the segment's index. When ctx is
// cancelled, segments not yet admitted are marked failed without being
// fetched and in-flight fetches are left to unwind via their request
// contexts.
func (s *Scheduler) Run(ctx context.Context, segments []domain.Segment, destFor func(domain.Segment) string) []domain.Outcome {
	outcomes := make([]domain.Outcome, len(segments))
	sem := semaphore.NewWeighted(s.limit)
	var wg sync.WaitGroup

	for _, seg := range segments {
		if err := sem.Acquire(ctx, 1); err != nil {
			out := domain.Retryable(seg, fmt.Errorf("not admitted: %w", ctx.Err()))
			outcomes[seg.Index] = out
			s.record(out)
			continue
		}

		s.tracker.SetCurrent(fmt.Sprintf("segment %d", seg.Index))

		wg.Add(1)
		go func(seg domain.Segment) {
			defer wg.Done()
			defer sem.Release(1)

			out := s.fetcher.Fetch(ctx, seg, destFor(seg))
			outcomes[seg.Index] = out
			s.record(out)

			if out.State != domain.OutcomeSuccess {
				s.logger.Warn("segment failed",
					"index", seg.Index, "state", out.State.String(), "error", out.Err)
			}
		}(seg)
	}

	wg.Wait()
	return outcomes
}

func (s *Scheduler) record(out domain.Outcome) {
	s.tracker.Record(out)
	if s.onUpdate != nil {
		s.onUpdate(s.tracker.Snapshot())
	}
}
