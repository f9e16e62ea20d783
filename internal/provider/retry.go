package provider

import (
	"context"
	"time"

	"go.uber.org/zap"

	"poolRank/internal/trace"
)

// retry runs fn under the provider's retry policy, doubling the backoff
// after each failed attempt.
func (p *ChainProvider) retry(ctx context.Context, op string, fn func(context.Context) error) error {
	maxRetries := p.cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	delay := p.cfg.RetryBackoff
	if delay <= 0 {
		delay = 100 * time.Millisecond
	}

	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if attempt >= maxRetries {
			return err
		}

		p.logger.Debug("retrying chain call",
			zap.String("op", op),
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", delay),
			zap.Error(err),
			trace.Field(ctx),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay *= 2
	}
}
