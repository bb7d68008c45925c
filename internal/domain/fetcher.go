package domain

import "context"

// Fetcher downloads one segment to dest. Implementations must remove any
// partially written file before returning a failed Outcome, and must honor
// ctx cancellation.
type Fetcher interface {
	Fetch(ctx context.Context, seg Segment, dest string) Outcome
}
