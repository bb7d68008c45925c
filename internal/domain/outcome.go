package domain

// OutcomeState classifies how a download attempt (or a whole retry sequence)
// ended.
type OutcomeState int

const (
	OutcomeSuccess OutcomeState = iota
	// OutcomeRetryable covers transport errors, timeouts, 5xx and 429
	// responses. A further attempt may succeed.
	OutcomeRetryable
	// OutcomeFatal covers other 4xx responses, local write errors and
	// protocol violations. Retrying cannot help.
	OutcomeFatal
)

func (s OutcomeState) String() string {
	switch s {
	case OutcomeSuccess:
		return "success"
	case OutcomeRetryable:
		return "retryable"
	case OutcomeFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Outcome is the result of fetching one segment. On success LocalPath names
// the fully written file and BytesWritten its size; on failure no partial
// file remains on disk.
type Outcome struct {
	Segment      Segment
	State        OutcomeState
	BytesWritten int64
	LocalPath    string
	Err          error
}

func Success(seg Segment, bytes int64, path string) Outcome {
	return Outcome{Segment: seg, State: OutcomeSuccess, BytesWritten: bytes, LocalPath: path}
}

func Retryable(seg Segment, err error) Outcome {
	return Outcome{Segment: seg, State: OutcomeRetryable, Err: err}
}

func Fatal(seg Segment, err error) Outcome {
	return Outcome{Segment: seg, State: OutcomeFatal, Err: err}
}
