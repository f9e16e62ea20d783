// Package metrics turns pool snapshots into liquidity and price analytics.
package metrics

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"poolRank/internal/model"
	"poolRank/internal/numeric"
	"poolRank/internal/provider"
	"poolRank/internal/trace"
)

// Calculator computes LiquidityMetrics from pool snapshots and USD reference
// prices.
type Calculator struct {
	pricer  provider.ReferencePricer
	workers int
	logger  *zap.Logger
}

func NewCalculator(pricer provider.ReferencePricer, workers int, logger *zap.Logger) *Calculator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if workers <= 0 {
		workers = 8
	}
	return &Calculator{
		pricer:  pricer,
		workers: workers,
		logger:  logger,
	}
}

// Compute derives one LiquidityMetrics from a snapshot and the USD reference
// price of its quote token. Pure: identical inputs yield identical outputs.
//
//	price     = quoteReserve / baseReserve   (quote-token units)
//	priceUsd  = price * quoteUsd
//	liquidity = quoteReserve * quoteUsd * 2
//
// The liquidity formula values both pool sides symmetrically, the standard
// TVL convention for 50/50 pools. Snapshots cannot express pool weights, so
// a weighted-pool provider would need a different formula here.
//
// A zero base reserve fails with model.ErrArithmetic: the pool holds no
// usable liquidity, which is a reportable condition, not a fault.
func (c *Calculator) Compute(ctx context.Context, snap model.PoolSnapshot, quoteUsd decimal.Decimal) (model.LiquidityMetrics, error) {
	if quoteUsd.IsNegative() {
		return model.LiquidityMetrics{}, fmt.Errorf("%w: negative reference price %s", model.ErrArithmetic, quoteUsd)
	}

	baseReserve, err := numeric.Normalize(snap.BaseReserve, snap.BaseDecimals)
	if err != nil {
		return model.LiquidityMetrics{}, fmt.Errorf("base reserve: %w", err)
	}
	quoteReserve, err := numeric.Normalize(snap.QuoteReserve, snap.QuoteDecimals)
	if err != nil {
		return model.LiquidityMetrics{}, fmt.Errorf("quote reserve: %w", err)
	}

	price, err := numeric.Div(quoteReserve, baseReserve)
	if err != nil {
		return model.LiquidityMetrics{}, fmt.Errorf("pool %s has no liquidity: %w", snap.PoolAddress.Hex(), err)
	}

	c.logger.Debug("computed pool metrics",
		zap.String("pool", snap.PoolAddress.Hex()),
		trace.Field(ctx),
	)

	return model.LiquidityMetrics{
		TokenAddress:      snap.BaseToken,
		QuoteTokenAddress: snap.QuoteToken,
		QuoteTokenSymbol:  snap.QuoteSymbol,
		Price:             price,
		PriceUSD:          price.Mul(quoteUsd),
		PoolAddress:       snap.PoolAddress,
		Liquidity:         quoteReserve.Mul(quoteUsd).Mul(numeric.Two),
		Timestamp:         snap.ObservedAt,
	}, nil
}
