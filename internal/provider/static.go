package provider

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"poolRank/internal/model"
)

// StaticPricer serves USD reference prices from a fixed table, typically
// stable-quote prices loaded from config.
type StaticPricer struct {
	prices map[common.Address]decimal.Decimal
}

func NewStaticPricer(prices map[common.Address]decimal.Decimal) *StaticPricer {
	table := make(map[common.Address]decimal.Decimal, len(prices))
	for addr, price := range prices {
		table[addr] = price
	}
	return &StaticPricer{prices: table}
}

func (p *StaticPricer) PriceOf(_ context.Context, quoteToken common.Address) (decimal.Decimal, error) {
	price, ok := p.prices[quoteToken]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: no reference price for %s", model.ErrUnavailable, quoteToken.Hex())
	}
	if price.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: negative reference price for %s", model.ErrUnavailable, quoteToken.Hex())
	}
	return price, nil
}
