package model

import "errors"

// Failure taxonomy for the analytics engine. Every expected failure mode maps
// to exactly one of these sentinels; callers classify with errors.Is.
var (
	// ErrArithmetic marks an invalid numeric operation, typically a pool
	// with a zero base reserve (no usable liquidity).
	ErrArithmetic = errors.New("arithmetic error")

	// ErrNotFound marks a pool or token unknown to the provider.
	ErrNotFound = errors.New("not found")

	// ErrUnavailable marks an upstream snapshot or reference price that is
	// temporarily unreachable. Retryable by the caller, never retried past
	// the provider's own backoff.
	ErrUnavailable = errors.New("unavailable")

	// ErrConfiguration marks a dispatcher or wiring defect. Fatal at
	// startup validation time.
	ErrConfiguration = errors.New("configuration error")

	// ErrCancelled marks a caller-requested abort.
	ErrCancelled = errors.New("cancelled")

	// ErrInternal marks an unexpected fault captured at the dispatch
	// boundary.
	ErrInternal = errors.New("internal error")
)
