package domain

import (
	"errors"
	"fmt"
)

// ErrNoVariants is returned when a master manifest lists no variant streams
// to select from.
var ErrNoVariants = errors.New("master manifest has no variants")

// ParseError reports manifest text that could not be interpreted as either a
// master or a media playlist.
type ParseError struct {
	URL    string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse manifest %s: %s: %v", e.URL, e.Reason, e.Err)
	}
	return fmt.Sprintf("parse manifest %s: %s", e.URL, e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

// InvalidURLError reports a reference that could not be resolved against its
// manifest's base URL.
type InvalidURLError struct {
	Base string
	Ref  string
	Err  error
}

func (e *InvalidURLError) Error() string {
	return fmt.Sprintf("resolve %q against %q: %v", e.Ref, e.Base, e.Err)
}

func (e *InvalidURLError) Unwrap() error { return e.Err }
