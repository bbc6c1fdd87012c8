package nado

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// The gateway encodes every price, size and balance as an x18 fixed-point
// integer: the decimal value scaled by 1e18 and truncated.

// ToX18 converts a decimal into its x18 integer representation.
func ToX18(d decimal.Decimal) *big.Int {
	return d.Shift(18).Truncate(0).BigInt()
}

// FromX18 converts an x18 integer back into a decimal.
func FromX18(v *big.Int) decimal.Decimal {
	return decimal.NewFromBigInt(v, -18)
}

// ParseX18 decodes an x18 integer string as emitted by the gateway.
func ParseX18(s string) (decimal.Decimal, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return decimal.Zero, fmt.Errorf("invalid x18 value %q", s)
	}
	return FromX18(v), nil
}

// FloorToIncrement rounds d down to the nearest multiple of inc.
// Used for buy prices so rounding can never lift a bid across the book.
func FloorToIncrement(d, inc decimal.Decimal) decimal.Decimal {
	return d.Div(inc).Floor().Mul(inc)
}

// CeilToIncrement rounds d up to the nearest multiple of inc.
// Used for sell prices, symmetric to FloorToIncrement.
func CeilToIncrement(d, inc decimal.Decimal) decimal.Decimal {
	return d.Div(inc).Ceil().Mul(inc)
}
