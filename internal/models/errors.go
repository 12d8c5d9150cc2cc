package models

import (
	"fmt"
	"strings"
	"time"
)

// InvalidRangeError is returned when a time range does not have start < end
type InvalidRangeError struct {
	Start time.Time
	End   time.Time
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid time range: start %s is not before end %s",
		e.Start.Format(time.RFC3339), e.End.Format(time.RFC3339))
}

// MissingStreamError is returned when a required stream cannot be located.
// Found lists the streams that were available.
type MissingStreamError struct {
	Kind   StreamKind
	Stream string
	Found  []string
}

func (e *MissingStreamError) Error() string {
	target := string(e.Kind)
	if e.Stream != "" {
		target = fmt.Sprintf("%s (%s)", e.Kind, e.Stream)
	}
	return fmt.Sprintf("required %s stream not found; available streams: [%s]",
		target, strings.Join(e.Found, ", "))
}

// UpstreamTimeoutError wraps a timed-out event store fetch
type UpstreamTimeoutError struct {
	Stream string
	Err    error
}

func (e *UpstreamTimeoutError) Error() string {
	return fmt.Sprintf("event store timed out fetching %q: %v", e.Stream, e.Err)
}

func (e *UpstreamTimeoutError) Unwrap() error {
	return e.Err
}

// UpstreamUnavailableError wraps a failed event store fetch
type UpstreamUnavailableError struct {
	Stream     string
	StatusCode int
	Err        error
}

func (e *UpstreamUnavailableError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("event store unavailable fetching %q (status %d): %v", e.Stream, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("event store unavailable fetching %q: %v", e.Stream, e.Err)
}

func (e *UpstreamUnavailableError) Unwrap() error {
	return e.Err
}

// ValidationError reports a bad request parameter
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// WithStream returns a copy of an upstream error tagged with the stream id.
// Other errors are returned unchanged.
func WithStream(err error, stream string) error {
	switch e := err.(type) {
	case *UpstreamTimeoutError:
		return &UpstreamTimeoutError{Stream: stream, Err: e.Err}
	case *UpstreamUnavailableError:
		return &UpstreamUnavailableError{Stream: stream, StatusCode: e.StatusCode, Err: e.Err}
	}
	return err
}
