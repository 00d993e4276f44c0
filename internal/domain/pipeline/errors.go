package pipeline

import (
	"errors"
	"fmt"
)

// Sentinel kinds for pipeline errors.
var (
	// ErrSourceUnavailable marks a cycle aborted because a source could not
	// be fetched or was unusable. No partial view is produced.
	ErrSourceUnavailable = errors.New("data unavailable")
	// ErrMissingTable is the cause when a source table was never supplied.
	ErrMissingTable = errors.New("table missing")
)

// SourceError names the source that made a cycle fail.
type SourceError struct {
	Source string
	Err    error
}

// NewSourceError wraps err as a failure of the named source.
func NewSourceError(source string, err error) *SourceError {
	return &SourceError{Source: source, Err: err}
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("%s: source %q: %v", ErrSourceUnavailable, e.Source, e.Err)
}

// Unwrap exposes the underlying cause.
func (e *SourceError) Unwrap() error { return e.Err }

// Is matches ErrSourceUnavailable.
func (e *SourceError) Is(target error) bool { return target == ErrSourceUnavailable }

// FailedSource extracts the source name from err, or "" when err is not a
// SourceError.
func FailedSource(err error) string {
	var se *SourceError
	if errors.As(err, &se) {
		return se.Source
	}
	return ""
}
