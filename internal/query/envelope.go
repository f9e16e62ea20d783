package query

import (
	"context"
	"errors"

	"poolRank/internal/model"
)

// FailureKind classifies an expected failure reported through the envelope.
type FailureKind string

const (
	FailureArithmetic    FailureKind = "arithmetic"
	FailureNotFound      FailureKind = "not_found"
	FailureUnavailable   FailureKind = "unavailable"
	FailureConfiguration FailureKind = "configuration"
	FailureCancelled     FailureKind = "cancelled"
	FailureInternal      FailureKind = "internal"
)

// Failure is the structured error half of the envelope: a kind plus a
// human-readable message, never a raw fault.
type Failure struct {
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
}

// Response is the uniform result envelope returned for every query. Exactly
// one of Data and Failure is set. Degraded marks a success computed from a
// partial pool set.
type Response struct {
	CorrelationID string      `json:"correlation_id,omitempty"`
	Data          interface{} `json:"data,omitempty"`
	Degraded      bool        `json:"degraded,omitempty"`
	Failure       *Failure    `json:"error,omitempty"`
}

// OK reports whether the envelope carries a success payload.
func (r Response) OK() bool { return r.Failure == nil }

// classify maps an error onto its failure kind. Cancellation is checked
// first so a cancelled query never surfaces as some downstream fault.
func classify(err error) FailureKind {
	switch {
	case errors.Is(err, model.ErrCancelled),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return FailureCancelled
	case errors.Is(err, model.ErrArithmetic):
		return FailureArithmetic
	case errors.Is(err, model.ErrNotFound):
		return FailureNotFound
	case errors.Is(err, model.ErrUnavailable):
		return FailureUnavailable
	case errors.Is(err, model.ErrConfiguration):
		return FailureConfiguration
	default:
		return FailureInternal
	}
}

func failureOf(err error) *Failure {
	return &Failure{Kind: classify(err), Message: err.Error()}
}
