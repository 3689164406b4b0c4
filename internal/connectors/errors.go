package connectors

import (
	"fmt"

	"github.com/openparl/parlsearch/internal/core/domain"
)

// StatusError is a non-2xx HTTP response from an upstream API.
type StatusError struct {
	// StatusCode is the HTTP status.
	StatusCode int

	// URL is the requested URL.
	URL string

	// Body is a truncated response body for diagnostics.
	Body string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned %d for %s: %s", e.StatusCode, e.URL, e.Body)
}

// Retryable reports whether the status warrants a retry: rate limiting
// or a server-side failure.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

// RejectedError is a fatal upstream rejection (a 4xx other than rate
// limiting). It wraps domain.ErrUpstreamRejected.
type RejectedError struct {
	Status *StatusError
}

// Error implements the error interface.
func (e *RejectedError) Error() string {
	return fmt.Sprintf("%v: %v", domain.ErrUpstreamRejected, e.Status)
}

// Unwrap exposes the sentinel for errors.Is.
func (e *RejectedError) Unwrap() error {
	return domain.ErrUpstreamRejected
}

// UnavailableError is an upstream failure that survived retries. It
// carries the cursor reached so the run summary can report a partial
// result instead of losing all progress.
type UnavailableError struct {
	// Cursor is the position the fetch had reached.
	Cursor *domain.Cursor

	// Err is the last error observed.
	Err error
}

// Error implements the error interface.
func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%v: %v", domain.ErrUpstreamUnavailable, e.Err)
}

// Unwrap exposes the sentinel for errors.Is.
func (e *UnavailableError) Unwrap() error {
	return domain.ErrUpstreamUnavailable
}
