package metrics

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"poolRank/internal/model"
	"poolRank/internal/provider"
	"poolRank/internal/trace"
)

// BatchResult carries the usable metrics of a multi-pool computation.
// Degraded is set when at least one pool was skipped.
type BatchResult struct {
	Metrics  []model.LiquidityMetrics
	Skipped  int
	Degraded bool
}

// ComputeBatch fans the per-pool computation out over a bounded worker pool
// and gathers every result before returning. One pool failing does not abort
// the batch: the pool is skipped and the result marked degraded. The batch as
// a whole fails with model.ErrUnavailable only when no pool was usable, and
// with model.ErrCancelled when the caller aborted — never with a partial
// success.
func (c *Calculator) ComputeBatch(ctx context.Context, snapshots provider.SnapshotProvider, pools []common.Address) (BatchResult, error) {
	if len(pools) == 0 {
		return BatchResult{}, fmt.Errorf("%w: no pools to compute", model.ErrUnavailable)
	}

	type poolResult struct {
		metrics model.LiquidityMetrics
		err     error
	}

	jobs := make(chan common.Address)
	results := make(chan poolResult, len(pools))

	workers := c.workers
	if workers > len(pools) {
		workers = len(pools)
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for pool := range jobs {
				metrics, err := c.computePool(ctx, snapshots, pool)
				results <- poolResult{metrics: metrics, err: err}
			}
		}()
	}

feed:
	for _, pool := range pools {
		select {
		case jobs <- pool:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()
	close(results)

	if err := ctx.Err(); err != nil {
		return BatchResult{}, fmt.Errorf("%w: %v", model.ErrCancelled, err)
	}

	out := BatchResult{Metrics: make([]model.LiquidityMetrics, 0, len(pools))}
	for result := range results {
		if result.err != nil {
			out.Skipped++
			c.logger.Warn("pool skipped",
				zap.String("pool", result.metrics.PoolAddress.Hex()),
				zap.Error(result.err),
				trace.Field(ctx),
			)
			continue
		}
		out.Metrics = append(out.Metrics, result.metrics)
	}

	if len(out.Metrics) == 0 {
		return BatchResult{}, fmt.Errorf("%w: no usable pools out of %d", model.ErrUnavailable, len(pools))
	}
	out.Degraded = out.Skipped > 0
	return out, nil
}

func (c *Calculator) computePool(ctx context.Context, snapshots provider.SnapshotProvider, pool common.Address) (model.LiquidityMetrics, error) {
	snap, err := snapshots.FetchSnapshot(ctx, pool)
	if err != nil {
		return model.LiquidityMetrics{PoolAddress: pool}, fmt.Errorf("fetch snapshot: %w", err)
	}

	quoteUsd, err := c.pricer.PriceOf(ctx, snap.QuoteToken)
	if err != nil {
		return model.LiquidityMetrics{PoolAddress: pool}, fmt.Errorf("reference price: %w", err)
	}

	metrics, err := c.Compute(ctx, snap, quoteUsd)
	if err != nil {
		return model.LiquidityMetrics{PoolAddress: pool}, err
	}
	return metrics, nil
}
