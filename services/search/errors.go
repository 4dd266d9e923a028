package search

import (
	"context"
	"errors"
	"fmt"
)

// UpstreamError is a non-success status from the upstream search provider.
// Surfaced to the UI as a retryable error.
type UpstreamError struct {
	Status int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream search failed with status %d", e.Status)
}

// TransportError is a network-level failure reaching the upstream provider.
// Treated the same as UpstreamError at the UI boundary.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("upstream search transport failure: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsCancelled reports whether err is a cancellation of a superseded request.
// Cancellations are absorbed silently and must never surface as user-visible
// errors.
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
