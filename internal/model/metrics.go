package model

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// LiquidityMetrics holds the derived per-pool analytics for one token pair.
// Timestamp is the snapshot's observation time, not the time of computation,
// so every value stays attributable to a known chain state.
type LiquidityMetrics struct {
	TokenAddress      common.Address  `json:"token_address"`
	QuoteTokenAddress common.Address  `json:"quote_token_address"`
	QuoteTokenSymbol  string          `json:"quote_token_symbol"`
	Price             decimal.Decimal `json:"price"`
	PriceUSD          decimal.Decimal `json:"price_usd"`
	PoolAddress       common.Address  `json:"pool_address"`
	Liquidity         decimal.Decimal `json:"liquidity"`
	Timestamp         time.Time       `json:"timestamp"`
}

// TokenPriceResponse is the answer to a single-pair price query. It carries
// the metrics of the most liquid pool serving the pair.
type TokenPriceResponse struct {
	TokenAddress      common.Address  `json:"token_address"`
	QuoteTokenAddress common.Address  `json:"quote_token_address"`
	QuoteTokenSymbol  string          `json:"quote_token_symbol"`
	Price             decimal.Decimal `json:"price"`
	PriceUSD          decimal.Decimal `json:"price_usd"`
	PoolAddress       common.Address  `json:"pool_address"`
	Liquidity         decimal.Decimal `json:"liquidity"`
	Timestamp         time.Time       `json:"timestamp"`
}
