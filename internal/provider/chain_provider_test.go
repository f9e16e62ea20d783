package provider

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"poolRank/internal/model"
)

var (
	testPool  = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	testBase  = common.HexToAddress("0x00000000000000000000000000000000000000b1")
	testQuote = common.HexToAddress("0x00000000000000000000000000000000000000c1")
)

// stubChain serves headers in sequence and answers ERC-20 calls from fixed
// tables, optionally refusing balanceOf at one pinned block.
type stubChain struct {
	parsed      abi.ABI
	headers     []*types.Header
	headerCalls int
	failBlock   *big.Int
	balances    map[common.Address]*big.Int
	decimals    map[common.Address]uint8
	symbols     map[common.Address]string
}

func newStubChain(t *testing.T, headers ...*types.Header) *stubChain {
	t.Helper()
	parsed, err := erc20StringABIInstance()
	if err != nil {
		t.Fatalf("parse abi: %v", err)
	}
	return &stubChain{
		parsed:   parsed,
		headers:  headers,
		balances: map[common.Address]*big.Int{},
		decimals: map[common.Address]uint8{},
		symbols:  map[common.Address]string{},
	}
}

func (s *stubChain) LatestHeader(context.Context) (*types.Header, error) {
	idx := s.headerCalls
	if idx >= len(s.headers) {
		idx = len(s.headers) - 1
	}
	s.headerCalls++
	return s.headers[idx], nil
}

func (s *stubChain) CallContract(_ context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	selector := msg.Data[:4]
	switch {
	case bytes.Equal(selector, s.parsed.Methods["balanceOf"].ID):
		if s.failBlock != nil && blockNumber != nil && blockNumber.Cmp(s.failBlock) == 0 {
			return nil, errors.New("missing trie node")
		}
		return s.parsed.Methods["balanceOf"].Outputs.Pack(s.balances[*msg.To])
	case bytes.Equal(selector, s.parsed.Methods["decimals"].ID):
		return s.parsed.Methods["decimals"].Outputs.Pack(s.decimals[*msg.To])
	case bytes.Equal(selector, s.parsed.Methods["symbol"].ID):
		return s.parsed.Methods["symbol"].Outputs.Pack(s.symbols[*msg.To])
	}
	return nil, errors.New("unexpected call")
}

func newTestProvider(chain ChainCaller) *ChainProvider {
	cfg := Config{MaxRetries: 0, RetryBackoff: time.Millisecond}
	specs := []PoolSpec{{Pool: testPool, Base: testBase, Quote: testQuote}}
	return NewChainProvider(cfg, chain, specs, nil)
}

func seedTokens(s *stubChain) {
	s.balances[testBase] = big.NewInt(1_000_000)
	s.balances[testQuote] = big.NewInt(2_500_000)
	s.decimals[testBase] = 18
	s.decimals[testQuote] = 6
	s.symbols[testBase] = "WETH"
	s.symbols[testQuote] = "USDT"
}

func TestFetchSnapshotStampsPinnedHeaderTime(t *testing.T) {
	stub := newStubChain(t, &types.Header{Number: big.NewInt(100), Time: 1_700_000_000})
	seedTokens(stub)

	snap, err := newTestProvider(stub).FetchSnapshot(context.Background(), testPool)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := time.Unix(1_700_000_000, 0).UTC(); !snap.ObservedAt.Equal(want) {
		t.Fatalf("observed at %v, want %v", snap.ObservedAt, want)
	}
	if snap.BaseReserve.Cmp(big.NewInt(1_000_000)) != 0 {
		t.Fatalf("base reserve %s", snap.BaseReserve)
	}
	if snap.QuoteSymbol != "USDT" || snap.QuoteDecimals != 6 {
		t.Fatalf("quote meta %q/%d", snap.QuoteSymbol, snap.QuoteDecimals)
	}
}

func TestFetchSnapshotFallbackRePinsHeader(t *testing.T) {
	stale := &types.Header{Number: big.NewInt(100), Time: 1_700_000_000}
	fresh := &types.Header{Number: big.NewInt(101), Time: 1_700_000_012}
	stub := newStubChain(t, stale, fresh)
	stub.failBlock = stale.Number
	seedTokens(stub)

	snap, err := newTestProvider(stub).FetchSnapshot(context.Background(), testPool)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The timestamp must describe the state the reserves were read at, not
	// the header whose pinned read was refused.
	if want := time.Unix(1_700_000_012, 0).UTC(); !snap.ObservedAt.Equal(want) {
		t.Fatalf("observed at %v, want %v", snap.ObservedAt, want)
	}
	if snap.QuoteReserve.Cmp(big.NewInt(2_500_000)) != 0 {
		t.Fatalf("quote reserve %s", snap.QuoteReserve)
	}
}

func TestFetchSnapshotUnknownPool(t *testing.T) {
	stub := newStubChain(t, &types.Header{Number: big.NewInt(1), Time: 1})
	_, err := newTestProvider(stub).FetchSnapshot(context.Background(), common.HexToAddress("0xdead"))
	if !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRetryRecoversWithinBudget(t *testing.T) {
	p := NewChainProvider(Config{MaxRetries: 2, RetryBackoff: time.Millisecond}, nil, nil, nil)

	attempts := 0
	err := p.retry(context.Background(), "op", func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("flaky")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 3 {
		t.Fatalf("attempts = %d, want 3", attempts)
	}
}

func TestRetryStopsAfterBudget(t *testing.T) {
	p := NewChainProvider(Config{MaxRetries: 1, RetryBackoff: time.Millisecond}, nil, nil, nil)

	attempts := 0
	wantErr := errors.New("down")
	err := p.retry(context.Background(), "op", func(context.Context) error {
		attempts++
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected %v, got %v", wantErr, err)
	}
	if attempts != 2 {
		t.Fatalf("attempts = %d, want 2", attempts)
	}
}

func TestRetryStopsOnCancel(t *testing.T) {
	p := NewChainProvider(Config{MaxRetries: 5, RetryBackoff: time.Millisecond}, nil, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.retry(ctx, "op", func(context.Context) error {
		return errors.New("flaky")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
