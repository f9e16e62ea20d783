package query

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"poolRank/internal/model"
	"poolRank/internal/trace"
)

// Handler executes one query kind. It returns the success payload, whether
// the result is degraded, and an expected error classified by the envelope.
type Handler interface {
	Kind() Kind
	Handle(ctx context.Context, q Query) (interface{}, bool, error)
}

// Dispatcher maps each query kind to exactly one handler. The mapping is
// validated when the dispatcher is built, so a misregistration fails at
// startup rather than on a request path.
type Dispatcher struct {
	handlers map[Kind]Handler
	logger   *zap.Logger
}

func NewDispatcher(logger *zap.Logger, handlers ...Handler) (*Dispatcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	registry := make(map[Kind]Handler, len(handlers))
	for _, h := range handlers {
		if h == nil {
			return nil, fmt.Errorf("%w: nil handler", model.ErrConfiguration)
		}
		if _, ok := registry[h.Kind()]; ok {
			return nil, fmt.Errorf("%w: duplicate handler for %q", model.ErrConfiguration, h.Kind())
		}
		registry[h.Kind()] = h
	}

	return &Dispatcher{handlers: registry, logger: logger}, nil
}

// Dispatch runs the query under the caller's context and returns its
// envelope. Expected failures come back as failure envelopes; a handler
// panic is captured here and reported as an internal failure so no fault
// escapes to the transport layer.
func (d *Dispatcher) Dispatch(ctx context.Context, q Query) (resp Response) {
	resp.CorrelationID = trace.ID(ctx)

	// The recovery handler must not touch q: when the panic came out of
	// q.QueryKind itself, doing so would panic a second time and escape
	// the boundary.
	var kind Kind
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("handler panic",
				zap.String("query", string(kind)),
				zap.Any("panic", r),
				trace.Field(ctx),
			)
			msg := "internal error handling query"
			if kind != "" {
				msg = fmt.Sprintf("internal error handling %q", kind)
			}
			resp.Data = nil
			resp.Degraded = false
			resp.Failure = &Failure{
				Kind:    FailureInternal,
				Message: msg,
			}
		}
	}()

	if q == nil {
		resp.Failure = failureOf(fmt.Errorf("%w: nil query", model.ErrConfiguration))
		return resp
	}
	kind = q.QueryKind()

	handler, ok := d.handlers[kind]
	if !ok {
		resp.Failure = failureOf(fmt.Errorf("%w: no handler for %q", model.ErrConfiguration, kind))
		return resp
	}

	if err := ctx.Err(); err != nil {
		resp.Failure = failureOf(err)
		return resp
	}

	data, degraded, err := handler.Handle(ctx, q)
	if err != nil {
		d.logger.Warn("query failed",
			zap.String("query", string(kind)),
			zap.Error(err),
			trace.Field(ctx),
		)
		resp.Failure = failureOf(err)
		return resp
	}

	// A cancellation racing a handler that managed to finish must still
	// surface as cancelled, never as a partial success.
	if err := ctx.Err(); err != nil {
		resp.Failure = failureOf(err)
		return resp
	}

	resp.Data = data
	resp.Degraded = degraded
	return resp
}
