package retry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/eleven-am/gohls/internal/domain"
)

// scriptedFetcher returns canned outcomes in order and counts attempts.
type scriptedFetcher struct {
	outcomes []domain.Outcome
	calls    int
}

func (f *scriptedFetcher) Fetch(ctx context.Context, seg domain.Segment, dest string) domain.Outcome {
	out := f.outcomes[f.calls]
	f.calls++
	return out
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestPolicy(next domain.Fetcher, attempts int) (*Policy, *[]time.Duration) {
	p := New(next, attempts, time.Second, testLogger())
	var delays []time.Duration
	p.sleep = func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}
	return p, &delays
}

func TestBackoffSchedule(t *testing.T) {
	seg := domain.Segment{Index: 0}
	retryErr := errors.New("status 500")
	fetcher := &scriptedFetcher{outcomes: []domain.Outcome{
		domain.Retryable(seg, retryErr),
		domain.Retryable(seg, retryErr),
		domain.Retryable(seg, retryErr),
	}}

	p, delays := newTestPolicy(fetcher, 3)
	out := p.Fetch(context.Background(), seg, "dest")

	if out.State != domain.OutcomeRetryable {
		t.Fatalf("expected final retryable outcome, got %v", out.State)
	}
	if fetcher.calls != 3 {
		t.Errorf("expected 3 attempts, got %d", fetcher.calls)
	}
	want := []time.Duration{time.Second, 2 * time.Second}
	if len(*delays) != len(want) {
		t.Fatalf("expected %d sleeps, got %d", len(want), len(*delays))
	}
	for i, d := range *delays {
		if d != want[i] {
			t.Errorf("sleep %d: expected %v, got %v", i, want[i], d)
		}
	}
}

func TestRecoveryAfterRetries(t *testing.T) {
	seg := domain.Segment{Index: 2}
	fetcher := &scriptedFetcher{outcomes: []domain.Outcome{
		domain.Retryable(seg, errors.New("timeout")),
		domain.Retryable(seg, errors.New("timeout")),
		domain.Success(seg, 100, "dest"),
	}}

	p, delays := newTestPolicy(fetcher, 3)
	out := p.Fetch(context.Background(), seg, "dest")

	if out.State != domain.OutcomeSuccess {
		t.Fatalf("expected success, got %v: %v", out.State, out.Err)
	}
	if fetcher.calls != 3 {
		t.Errorf("expected 3 attempts, got %d", fetcher.calls)
	}
	if len(*delays) != 2 {
		t.Errorf("expected 2 sleeps, got %d", len(*delays))
	}
}

func TestFatalShortCircuits(t *testing.T) {
	seg := domain.Segment{Index: 1}
	fetcher := &scriptedFetcher{outcomes: []domain.Outcome{
		domain.Fatal(seg, errors.New("status 404")),
	}}

	p, delays := newTestPolicy(fetcher, 3)
	out := p.Fetch(context.Background(), seg, "dest")

	if out.State != domain.OutcomeFatal {
		t.Fatalf("expected fatal, got %v", out.State)
	}
	if fetcher.calls != 1 {
		t.Errorf("expected 1 attempt, got %d", fetcher.calls)
	}
	if len(*delays) != 0 {
		t.Errorf("expected no sleeps, got %d", len(*delays))
	}
}

func TestSuccessNoRetry(t *testing.T) {
	seg := domain.Segment{Index: 0}
	fetcher := &scriptedFetcher{outcomes: []domain.Outcome{
		domain.Success(seg, 10, "dest"),
	}}

	p, delays := newTestPolicy(fetcher, 3)
	out := p.Fetch(context.Background(), seg, "dest")

	if out.State != domain.OutcomeSuccess {
		t.Fatalf("expected success, got %v", out.State)
	}
	if len(*delays) != 0 {
		t.Errorf("expected no sleeps, got %d", len(*delays))
	}
}

func TestCancelDuringBackoff(t *testing.T) {
	seg := domain.Segment{Index: 0}
	fetcher := &scriptedFetcher{outcomes: []domain.Outcome{
		domain.Retryable(seg, errors.New("status 503")),
	}}

	p := New(fetcher, 3, time.Second, testLogger())
	p.sleep = func(ctx context.Context, d time.Duration) error {
		return context.Canceled
	}

	out := p.Fetch(context.Background(), seg, "dest")
	if out.State != domain.OutcomeRetryable {
		t.Fatalf("expected last retryable outcome, got %v", out.State)
	}
	if fetcher.calls != 1 {
		t.Errorf("expected 1 attempt before cancellation, got %d", fetcher.calls)
	}
}
