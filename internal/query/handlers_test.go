package query

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"sort"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"poolRank/internal/metrics"
	"poolRank/internal/model"
	"poolRank/internal/trace"
)

var (
	tokenWETH = common.HexToAddress("0x1111111111111111111111111111111111111111")
	quoteUSDT = common.HexToAddress("0x2222222222222222222222222222222222222222")
	quoteDAI  = common.HexToAddress("0x4444444444444444444444444444444444444444")
	snapTime  = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
)

// fakeSource is an in-memory PoolSource.
type fakeSource struct {
	snapshots map[common.Address]model.PoolSnapshot
	failing   map[common.Address]error
}

func (f *fakeSource) FetchSnapshot(_ context.Context, pool common.Address) (model.PoolSnapshot, error) {
	if err, ok := f.failing[pool]; ok {
		return model.PoolSnapshot{}, err
	}
	snap, ok := f.snapshots[pool]
	if !ok {
		return model.PoolSnapshot{}, fmt.Errorf("%w: pool %s", model.ErrNotFound, pool.Hex())
	}
	return snap, nil
}

func (f *fakeSource) ListPoolsForToken(_ context.Context, token common.Address) ([]common.Address, error) {
	var pools []common.Address
	for pool, snap := range f.snapshots {
		if snap.BaseToken == token {
			pools = append(pools, pool)
		}
	}
	sort.Slice(pools, func(i, j int) bool { return bytes.Compare(pools[i][:], pools[j][:]) < 0 })
	return pools, nil
}

func (f *fakeSource) AllPools(_ context.Context) ([]common.Address, error) {
	var pools []common.Address
	for pool := range f.snapshots {
		pools = append(pools, pool)
	}
	for pool := range f.failing {
		pools = append(pools, pool)
	}
	sort.Slice(pools, func(i, j int) bool { return bytes.Compare(pools[i][:], pools[j][:]) < 0 })
	return pools, nil
}

type tablePricer struct {
	prices map[common.Address]decimal.Decimal
}

func (p *tablePricer) PriceOf(_ context.Context, quote common.Address) (decimal.Decimal, error) {
	price, ok := p.prices[quote]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: no reference price for %s", model.ErrUnavailable, quote.Hex())
	}
	return price, nil
}

func usdtPool(pool string, quoteUnits int64) (common.Address, model.PoolSnapshot) {
	addr := common.HexToAddress(pool)
	return addr, model.PoolSnapshot{
		PoolAddress:   addr,
		BaseToken:     tokenWETH,
		QuoteToken:    quoteUSDT,
		QuoteSymbol:   "USDT",
		BaseReserve:   big.NewInt(1).Mul(big.NewInt(10), big.NewInt(1e18)),
		QuoteReserve:  big.NewInt(quoteUnits * 1e6),
		BaseDecimals:  18,
		QuoteDecimals: 6,
		ObservedAt:    snapTime,
	}
}

func usdPricer() *tablePricer {
	return &tablePricer{prices: map[common.Address]decimal.Decimal{
		quoteUSDT: decimal.NewFromInt(1),
	}}
}

func newEngine(t *testing.T, source *fakeSource, pricer *tablePricer) *Dispatcher {
	t.Helper()
	calc := metrics.NewCalculator(pricer, 4, nil)
	d, err := NewDispatcher(nil,
		NewTopPoolsHandler(source, calc, nil),
		NewTokenPriceHandler(source, calc, nil),
	)
	if err != nil {
		t.Fatalf("build dispatcher: %v", err)
	}
	return d
}

func TestTopPoolsRankedAndLimited(t *testing.T) {
	poolA, snapA := usdtPool("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", 100)
	poolB, snapB := usdtPool("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb", 300)
	poolC, snapC := usdtPool("0xcccccccccccccccccccccccccccccccccccccccc", 200)
	source := &fakeSource{snapshots: map[common.Address]model.PoolSnapshot{
		poolA: snapA, poolB: snapB, poolC: snapC,
	}}

	resp := newEngine(t, source, usdPricer()).Dispatch(context.Background(), TopPoolsQuery{Limit: 2})
	if !resp.OK() {
		t.Fatalf("unexpected failure: %+v", resp.Failure)
	}

	ranked, ok := resp.Data.([]model.LiquidityMetrics)
	if !ok {
		t.Fatalf("unexpected payload type %T", resp.Data)
	}
	if len(ranked) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(ranked))
	}
	if ranked[0].PoolAddress != poolB || ranked[1].PoolAddress != poolC {
		t.Fatalf("ranking mismatch: %s, %s", ranked[0].PoolAddress.Hex(), ranked[1].PoolAddress.Hex())
	}
	if resp.Degraded {
		t.Fatalf("full result flagged degraded")
	}
}

func TestTopPoolsDegradedOnPartialFailure(t *testing.T) {
	poolA, snapA := usdtPool("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", 100)
	poolB := common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	source := &fakeSource{
		snapshots: map[common.Address]model.PoolSnapshot{poolA: snapA},
		failing:   map[common.Address]error{poolB: fmt.Errorf("%w: rpc down", model.ErrUnavailable)},
	}

	resp := newEngine(t, source, usdPricer()).Dispatch(context.Background(), TopPoolsQuery{Limit: 10})
	if !resp.OK() {
		t.Fatalf("unexpected failure: %+v", resp.Failure)
	}
	if !resp.Degraded {
		t.Fatalf("partial result not flagged degraded")
	}
	ranked := resp.Data.([]model.LiquidityMetrics)
	if len(ranked) != 1 || ranked[0].PoolAddress != poolA {
		t.Fatalf("unexpected ranked set: %+v", ranked)
	}
}

func TestTopPoolsAllReferencePricesUnavailable(t *testing.T) {
	poolA, snapA := usdtPool("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", 100)
	source := &fakeSource{snapshots: map[common.Address]model.PoolSnapshot{poolA: snapA}}
	empty := &tablePricer{prices: nil}

	resp := newEngine(t, source, empty).Dispatch(context.Background(), TopPoolsQuery{Limit: 10})
	if resp.OK() {
		t.Fatalf("expected failure, got %+v", resp.Data)
	}
	if resp.Failure.Kind != FailureUnavailable {
		t.Fatalf("expected unavailable failure, got %s", resp.Failure.Kind)
	}
}

func TestTokenPricePicksMostLiquidPool(t *testing.T) {
	poolA, snapA := usdtPool("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", 100)
	poolB, snapB := usdtPool("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb", 300)
	source := &fakeSource{snapshots: map[common.Address]model.PoolSnapshot{
		poolA: snapA, poolB: snapB,
	}}

	resp := newEngine(t, source, usdPricer()).Dispatch(context.Background(), TokenPriceQuery{
		Token: tokenWETH,
		Quote: quoteUSDT,
	})
	if !resp.OK() {
		t.Fatalf("unexpected failure: %+v", resp.Failure)
	}

	price, ok := resp.Data.(model.TokenPriceResponse)
	if !ok {
		t.Fatalf("unexpected payload type %T", resp.Data)
	}
	if price.PoolAddress != poolB {
		t.Fatalf("expected most liquid pool %s, got %s", poolB.Hex(), price.PoolAddress.Hex())
	}
	// 300 quote / 10 base = 30.
	if want := decimal.NewFromInt(30); !price.Price.Equal(want) {
		t.Fatalf("price mismatch: %s != %s", price.Price, want)
	}
	if price.QuoteTokenSymbol != "USDT" {
		t.Fatalf("symbol mismatch: %q", price.QuoteTokenSymbol)
	}
	if !price.Timestamp.Equal(snapTime) {
		t.Fatalf("timestamp mismatch: %s", price.Timestamp)
	}
}

func TestTokenPriceUnknownToken(t *testing.T) {
	source := &fakeSource{}
	resp := newEngine(t, source, usdPricer()).Dispatch(context.Background(), TokenPriceQuery{
		Token: common.HexToAddress("0x9999999999999999999999999999999999999999"),
		Quote: quoteUSDT,
	})
	if resp.OK() {
		t.Fatalf("expected failure")
	}
	if resp.Failure.Kind != FailureNotFound {
		t.Fatalf("expected not found, got %s", resp.Failure.Kind)
	}
}

func TestTokenPriceQuoteMismatch(t *testing.T) {
	poolA, snapA := usdtPool("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", 100)
	source := &fakeSource{snapshots: map[common.Address]model.PoolSnapshot{poolA: snapA}}

	resp := newEngine(t, source, usdPricer()).Dispatch(context.Background(), TokenPriceQuery{
		Token: tokenWETH,
		Quote: quoteDAI,
	})
	if resp.OK() {
		t.Fatalf("expected failure")
	}
	if resp.Failure.Kind != FailureNotFound {
		t.Fatalf("expected not found, got %s", resp.Failure.Kind)
	}
}

func TestQueryCarriesCorrelationEndToEnd(t *testing.T) {
	poolA, snapA := usdtPool("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", 100)
	source := &fakeSource{snapshots: map[common.Address]model.PoolSnapshot{poolA: snapA}}

	id := trace.NewID()
	ctx := trace.WithID(context.Background(), id)
	resp := newEngine(t, source, usdPricer()).Dispatch(ctx, TopPoolsQuery{Limit: 1})
	if resp.CorrelationID != id {
		t.Fatalf("correlation id not propagated: %q != %q", resp.CorrelationID, id)
	}
}
