// Package query routes typed requests to their handlers and wraps every
// outcome in a uniform success-or-failure envelope.
package query

import "github.com/ethereum/go-ethereum/common"

// Kind identifies one query variant. The set is closed: the dispatcher is
// validated against it at construction time.
type Kind string

const (
	KindTopPools   Kind = "top_pools"
	KindTokenPrice Kind = "token_price"
)

// Query is a typed request value.
type Query interface {
	QueryKind() Kind
}

// TopPoolsQuery asks for the top pools by liquidity. Limit is clamped to
// [1, 100] by the ranking engine, never rejected.
type TopPoolsQuery struct {
	Limit int
}

func (TopPoolsQuery) QueryKind() Kind { return KindTopPools }

// TokenPriceQuery asks for the price of Token denominated in Quote, taken
// from the most liquid pool serving that pair.
type TokenPriceQuery struct {
	Token common.Address
	Quote common.Address
}

func (TokenPriceQuery) QueryKind() Kind { return KindTokenPrice }
