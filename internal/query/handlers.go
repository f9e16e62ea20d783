package query

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"poolRank/internal/metrics"
	"poolRank/internal/model"
	"poolRank/internal/provider"
	"poolRank/internal/ranking"
)

// PoolSource is the provider surface the handlers need: snapshots plus the
// full pool index.
type PoolSource interface {
	provider.SnapshotProvider
	provider.PoolIndex
}

// TopPoolsHandler answers TopPoolsQuery: compute metrics for every known
// pool, rank by liquidity, return the top slice.
type TopPoolsHandler struct {
	source PoolSource
	calc   *metrics.Calculator
	logger *zap.Logger
}

func NewTopPoolsHandler(source PoolSource, calc *metrics.Calculator, logger *zap.Logger) *TopPoolsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TopPoolsHandler{source: source, calc: calc, logger: logger}
}

func (h *TopPoolsHandler) Kind() Kind { return KindTopPools }

func (h *TopPoolsHandler) Handle(ctx context.Context, q Query) (interface{}, bool, error) {
	req, ok := q.(TopPoolsQuery)
	if !ok {
		return nil, false, fmt.Errorf("%w: %T is not a top pools query", model.ErrConfiguration, q)
	}

	pools, err := h.source.AllPools(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("list pools: %w", err)
	}

	batch, err := h.calc.ComputeBatch(ctx, h.source, pools)
	if err != nil {
		return nil, false, err
	}

	return ranking.Top(batch.Metrics, req.Limit), batch.Degraded, nil
}

// TokenPriceHandler answers TokenPriceQuery: among the pools pairing the
// token with the requested quote, pick the most liquid one and report its
// price.
type TokenPriceHandler struct {
	source PoolSource
	calc   *metrics.Calculator
	logger *zap.Logger
}

func NewTokenPriceHandler(source PoolSource, calc *metrics.Calculator, logger *zap.Logger) *TokenPriceHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenPriceHandler{source: source, calc: calc, logger: logger}
}

func (h *TokenPriceHandler) Kind() Kind { return KindTokenPrice }

func (h *TokenPriceHandler) Handle(ctx context.Context, q Query) (interface{}, bool, error) {
	req, ok := q.(TokenPriceQuery)
	if !ok {
		return nil, false, fmt.Errorf("%w: %T is not a token price query", model.ErrConfiguration, q)
	}

	pools, err := h.source.ListPoolsForToken(ctx, req.Token)
	if err != nil {
		return nil, false, fmt.Errorf("list pools for token: %w", err)
	}
	if len(pools) == 0 {
		return nil, false, fmt.Errorf("%w: no pool for token %s", model.ErrNotFound, req.Token.Hex())
	}

	batch, err := h.calc.ComputeBatch(ctx, h.source, pools)
	if err != nil {
		return nil, false, err
	}

	// Keep only pools quoted in the requested denomination.
	matched := batch.Metrics[:0:0]
	for _, m := range batch.Metrics {
		if m.QuoteTokenAddress == req.Quote {
			matched = append(matched, m)
		}
	}
	if len(matched) == 0 {
		return nil, false, fmt.Errorf("%w: no pool pricing %s in %s", model.ErrNotFound, req.Token.Hex(), req.Quote.Hex())
	}

	best := ranking.Top(matched, 1)[0]
	return model.TokenPriceResponse{
		TokenAddress:      best.TokenAddress,
		QuoteTokenAddress: best.QuoteTokenAddress,
		QuoteTokenSymbol:  best.QuoteTokenSymbol,
		Price:             best.Price,
		PriceUSD:          best.PriceUSD,
		PoolAddress:       best.PoolAddress,
		Liquidity:         best.Liquidity,
		Timestamp:         best.Timestamp,
	}, batch.Degraded, nil
}
