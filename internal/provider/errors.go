package provider

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the schedule provider has no data for the
	// query. A valid empty result, not a failure.
	ErrNotFound = errors.New("flight not found")

	// ErrRateLimited means the provider answered HTTP 429. Transient;
	// callers back off instead of treating it as permanent.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrNoData means the position provider returned a state vector
	// too short to populate a snapshot. Treated like ErrNotFound for
	// that source.
	ErrNoData = errors.New("no position data")
)

// NetError wraps connectivity and timeout failures so callers can
// classify a refresh pass as retryable.
type NetError struct {
	Op  string
	Err error
}

func (e *NetError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetError) Unwrap() error { return e.Err }

// IsNetwork reports whether err is a network-layer failure.
func IsNetwork(err error) bool {
	var ne *NetError
	return errors.As(err, &ne)
}
