// Package provider defines the upstream data contracts consumed by the
// analytics engine and their chain-backed implementations.
package provider

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"poolRank/internal/model"
)

// SnapshotProvider supplies per-pool reserve snapshots.
type SnapshotProvider interface {
	// FetchSnapshot returns the current snapshot for a pool. Unknown pools
	// fail with model.ErrNotFound; unreachable upstreams with
	// model.ErrUnavailable.
	FetchSnapshot(ctx context.Context, pool common.Address) (model.PoolSnapshot, error)

	// ListPoolsForToken returns the finite set of pools whose base token
	// is the given token, in deterministic order.
	ListPoolsForToken(ctx context.Context, token common.Address) ([]common.Address, error)
}

// PoolIndex enumerates every pool the provider serves. Used by queries that
// span the whole pool set.
type PoolIndex interface {
	AllPools(ctx context.Context) ([]common.Address, error)
}

// ReferencePricer supplies the USD reference price of a quote token.
type ReferencePricer interface {
	// PriceOf fails with model.ErrUnavailable when no reference price is
	// known; it never substitutes zero for unknown.
	PriceOf(ctx context.Context, quoteToken common.Address) (decimal.Decimal, error)
}
