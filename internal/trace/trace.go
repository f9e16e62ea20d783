// Package trace carries the per-request correlation identifier. The id is an
// explicit context value, never ambient state, so concurrent requests stay
// isolated.
package trace

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type correlationKey struct{}

// NewID returns a fresh correlation identifier. The transport layer (here:
// the CLI entry point) generates one per inbound request.
func NewID() string {
	return uuid.NewString()
}

// WithID attaches a correlation id to the context. The first writer wins: a
// context that already carries an id is returned unchanged, so nothing
// downstream can re-attribute a request mid-flight.
func WithID(ctx context.Context, id string) context.Context {
	if id == "" || ID(ctx) != "" {
		return ctx
	}
	return context.WithValue(ctx, correlationKey{}, id)
}

// ID returns the correlation id carried by ctx, or "" when none is set.
func ID(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}

// Field returns the correlation id as a zap field for trace emission.
func Field(ctx context.Context) zap.Field {
	id := ID(ctx)
	if id == "" {
		return zap.Skip()
	}
	return zap.String("correlation_id", id)
}
