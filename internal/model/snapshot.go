package model

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// PoolSnapshot is a point-in-time read of one pool's reserves and metadata.
// It is produced by a snapshot provider and read-only afterwards.
type PoolSnapshot struct {
	PoolAddress   common.Address
	BaseToken     common.Address
	QuoteToken    common.Address
	QuoteSymbol   string
	BaseReserve   *big.Int
	QuoteReserve  *big.Int
	BaseDecimals  uint8
	QuoteDecimals uint8
	ObservedAt    time.Time
}
