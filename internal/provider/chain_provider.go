package provider

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"poolRank/internal/model"
	"poolRank/internal/trace"
)

// PoolSpec declares one pool served by the provider: the pool contract and
// the base/quote orientation of its pair.
type PoolSpec struct {
	Pool  common.Address
	Base  common.Address
	Quote common.Address
}

// Config controls chain provider retry behavior.
type Config struct {
	MaxRetries   int
	RetryBackoff time.Duration
}

// ChainCaller is the slice of chain.Client the provider needs.
type ChainCaller interface {
	LatestHeader(ctx context.Context) (*types.Header, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// ChainProvider reads pool reserves and token metadata over go-ethereum RPC.
// Reserves are pinned to the latest header at fetch time so the snapshot's
// observation timestamp matches a known chain state.
type ChainProvider struct {
	cfg    Config
	client ChainCaller
	logger *zap.Logger
	pools  map[common.Address]PoolSpec
	order  []common.Address
	tokens *TokenMetaCache
}

func NewChainProvider(cfg Config, client ChainCaller, specs []PoolSpec, logger *zap.Logger) *ChainProvider {
	if logger == nil {
		logger = zap.NewNop()
	}

	pools := make(map[common.Address]PoolSpec, len(specs))
	order := make([]common.Address, 0, len(specs))
	for _, spec := range specs {
		if _, ok := pools[spec.Pool]; ok {
			continue
		}
		pools[spec.Pool] = spec
		order = append(order, spec.Pool)
	}
	sort.Slice(order, func(i, j int) bool {
		return bytes.Compare(order[i][:], order[j][:]) < 0
	})

	return &ChainProvider{
		cfg:    cfg,
		client: client,
		logger: logger,
		pools:  pools,
		order:  order,
		tokens: NewTokenMetaCache(),
	}
}

// FetchSnapshot implements SnapshotProvider.
func (p *ChainProvider) FetchSnapshot(ctx context.Context, pool common.Address) (model.PoolSnapshot, error) {
	spec, ok := p.pools[pool]
	if !ok {
		return model.PoolSnapshot{}, fmt.Errorf("%w: pool %s", model.ErrNotFound, pool.Hex())
	}

	baseReserve, quoteReserve, header, err := p.fetchReserves(ctx, spec)
	if err != nil {
		return model.PoolSnapshot{}, upstreamError(err, "fetch reserves")
	}

	baseMeta, err := p.tokenMeta(ctx, spec.Base)
	if err != nil {
		return model.PoolSnapshot{}, upstreamError(err, "base token metadata")
	}
	quoteMeta, err := p.tokenMeta(ctx, spec.Quote)
	if err != nil {
		return model.PoolSnapshot{}, upstreamError(err, "quote token metadata")
	}

	return model.PoolSnapshot{
		PoolAddress:   spec.Pool,
		BaseToken:     spec.Base,
		QuoteToken:    spec.Quote,
		QuoteSymbol:   quoteMeta.Symbol,
		BaseReserve:   baseReserve,
		QuoteReserve:  quoteReserve,
		BaseDecimals:  baseMeta.Decimals,
		QuoteDecimals: quoteMeta.Decimals,
		ObservedAt:    time.Unix(int64(header.Time), 0).UTC(),
	}, nil
}

// ListPoolsForToken implements SnapshotProvider. Pools come back in address
// order so repeated calls see the same sequence.
func (p *ChainProvider) ListPoolsForToken(_ context.Context, token common.Address) ([]common.Address, error) {
	matched := make([]common.Address, 0, len(p.order))
	for _, pool := range p.order {
		if p.pools[pool].Base == token {
			matched = append(matched, pool)
		}
	}
	return matched, nil
}

// AllPools implements PoolIndex.
func (p *ChainProvider) AllPools(_ context.Context) ([]common.Address, error) {
	pools := make([]common.Address, len(p.order))
	copy(pools, p.order)
	return pools, nil
}

// fetchReserves reads both ERC-20 balances of the pool pinned to a header and
// returns that header, so the caller stamps the snapshot with the same chain
// state the reserves came from. When the pinned read is not served, the
// fallback re-pins to a fresh header rather than reading unstamped latest
// state.
func (p *ChainProvider) fetchReserves(ctx context.Context, spec PoolSpec) (*big.Int, *big.Int, *types.Header, error) {
	header, err := p.latestHeader(ctx)
	if err != nil {
		return nil, nil, nil, err
	}

	base, errBase := p.balanceAt(ctx, spec.Base, spec.Pool, header.Number)
	quote, errQuote := p.balanceAt(ctx, spec.Quote, spec.Pool, header.Number)
	if errBase == nil && errQuote == nil {
		return base, quote, header, nil
	}
	if ctx.Err() != nil {
		return nil, nil, nil, ctx.Err()
	}

	p.logger.Warn("pinned reserve read failed, re-pinning to a fresh header",
		zap.String("pool", spec.Pool.Hex()),
		zap.Uint64("block", header.Number.Uint64()),
		trace.Field(ctx),
	)

	header, err = p.latestHeader(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	base, errBase = p.balanceAt(ctx, spec.Base, spec.Pool, header.Number)
	quote, errQuote = p.balanceAt(ctx, spec.Quote, spec.Pool, header.Number)
	if errBase == nil && errQuote == nil {
		return base, quote, header, nil
	}
	if errBase != nil {
		return nil, nil, nil, errBase
	}
	return nil, nil, nil, errQuote
}

func (p *ChainProvider) tokenMeta(ctx context.Context, token common.Address) (TokenMeta, error) {
	if meta, ok := p.tokens.Get(token); ok {
		return meta, nil
	}
	var meta TokenMeta
	err := p.retry(ctx, "token metadata", func(ctx context.Context) error {
		var err error
		meta, err = fetchTokenMeta(ctx, p.client, token, p.logger)
		return err
	})
	if err != nil {
		return TokenMeta{}, err
	}
	p.tokens.Set(token, meta)
	return meta, nil
}

func (p *ChainProvider) balanceAt(ctx context.Context, token, owner common.Address, blockPtr *big.Int) (*big.Int, error) {
	var bal *big.Int
	err := p.retry(ctx, "balanceOf", func(ctx context.Context) error {
		var err error
		bal, err = balanceOf(ctx, p.client, token, owner, blockPtr)
		return err
	})
	return bal, err
}

func (p *ChainProvider) latestHeader(ctx context.Context) (*types.Header, error) {
	var header *types.Header
	err := p.retry(ctx, "latest header", func(ctx context.Context) error {
		var err error
		header, err = p.client.LatestHeader(ctx)
		return err
	})
	return header, err
}

// upstreamError classifies provider faults as Unavailable while letting
// cancellation pass through untouched.
func upstreamError(err error, what string) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", model.ErrUnavailable, what, err)
}
