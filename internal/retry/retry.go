// Package retry wraps a Fetcher with bounded exponential backoff.
package retry

import (
	"context"
	"log/slog"
	"time"

	"github.com/eleven-am/gohls/internal/domain"
)

// Policy retries retryable outcomes up to maxAttempts, sleeping
// baseDelay * 2^(n-1) after the nth failed attempt. Fatal outcomes and
// successes pass through immediately. Policy implements domain.Fetcher so it
// stacks in front of the real fetcher.
type Policy struct {
	next        domain.Fetcher
	maxAttempts int
	baseDelay   time.Duration
	logger      *slog.Logger

	sleep func(context.Context, time.Duration) error
}

func New(next domain.Fetcher, maxAttempts int, baseDelay time.Duration, logger *slog.Logger) *Policy {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Policy{
		next:        next,
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
		logger:      logger,
		sleep:       sleepCtx,
	}
}

// Fetch runs attempts until one is terminal. When every attempt was
// retryable the last outcome is returned unchanged; context cancellation
// during a backoff sleep ends the sequence early with the last outcome.
func (p *Policy) Fetch(ctx context.Context, seg domain.Segment, dest string) domain.Outcome {
	var last domain.Outcome

	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		last = p.next.Fetch(ctx, seg, dest)
		if last.State != domain.OutcomeRetryable {
			return last
		}
		if attempt == p.maxAttempts {
			break
		}

		delay := p.baseDelay << (attempt - 1)
		p.logger.Debug("retrying segment",
			"index", seg.Index, "attempt", attempt, "delay", delay, "error", last.Err)
		if err := p.sleep(ctx, delay); err != nil {
			return last
		}
	}

	return last
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
