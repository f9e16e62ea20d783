// Package numeric provides the fixed-precision arithmetic used for all
// money-significant values. Reserves arrive as raw integer token amounts with
// per-token decimals; everything downstream works on decimal.Decimal so no
// float rounding can leak into prices or TVL.
package numeric

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"poolRank/internal/model"
)

const (
	// MinPrecision is the minimum number of fractional digits preserved by
	// any operation, matching the most granular token standard in scope.
	MinPrecision = 18

	// divScale is the rounding scale for division. Double the minimum
	// precision so a later multiplication cannot drop below MinPrecision.
	divScale = 2 * MinPrecision
)

// Normalize converts a raw integer token amount into its decimal value by
// shifting the token's decimals. The conversion is exact.
func Normalize(raw *big.Int, decimals uint8) (decimal.Decimal, error) {
	if raw == nil {
		return decimal.Zero, fmt.Errorf("%w: nil amount", model.ErrArithmetic)
	}
	if raw.Sign() < 0 {
		return decimal.Zero, fmt.Errorf("%w: negative reserve %s", model.ErrArithmetic, raw)
	}
	return decimal.NewFromBigInt(raw, -int32(decimals)), nil
}

// Div divides num by den at divScale fractional digits. A zero denominator
// fails instead of producing infinity or NaN.
func Div(num, den decimal.Decimal) (decimal.Decimal, error) {
	if den.IsZero() {
		return decimal.Zero, fmt.Errorf("%w: division by zero", model.ErrArithmetic)
	}
	return num.DivRound(den, divScale), nil
}

// Two is the constant factor for symmetric two-sided pool valuation.
var Two = decimal.NewFromInt(2)
