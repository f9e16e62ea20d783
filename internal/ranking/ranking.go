// Package ranking selects and orders top pools by liquidity.
package ranking

import (
	"bytes"
	"sort"

	"poolRank/internal/model"
)

const (
	// MinLimit and MaxLimit bound the requested result size. Out-of-range
	// limits are clamped, never rejected.
	MinLimit = 1
	MaxLimit = 100
)

// Clamp forces a requested limit into [MinLimit, MaxLimit].
func Clamp(limit int) int {
	if limit < MinLimit {
		return MinLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// Top returns the min(Clamp(limit), len(metrics)) entries with the highest
// liquidity, ordered descending. Equal liquidity values are broken by
// ascending pool address, so the order is total and reproducible on
// identical input. The input slice is not mutated; the result is a new slice
// sharing the metrics values.
func Top(metrics []model.LiquidityMetrics, limit int) []model.LiquidityMetrics {
	limit = Clamp(limit)

	ranked := make([]model.LiquidityMetrics, len(metrics))
	copy(ranked, metrics)
	sort.Slice(ranked, func(i, j int) bool {
		if cmp := ranked[i].Liquidity.Cmp(ranked[j].Liquidity); cmp != 0 {
			return cmp > 0
		}
		return bytes.Compare(ranked[i].PoolAddress[:], ranked[j].PoolAddress[:]) < 0
	})

	if limit < len(ranked) {
		ranked = ranked[:limit]
	}
	return ranked
}
