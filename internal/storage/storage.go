package storage

import (
	"context"

	"poolRank/internal/model"
)

// MetricsSink persists computed liquidity metrics. Sinks live outside the
// query engine: the core never depends on them.
type MetricsSink interface {
	PutMetricsBatch(ctx context.Context, batch []model.LiquidityMetrics) error
}
