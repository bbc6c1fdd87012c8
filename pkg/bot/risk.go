package bot

import "github.com/shopspring/decimal"

// RiskLimits bounds the notional position value the quoter may sit at.
// MaxShortValue is negative (how far short we may go), MaxLongValue
// positive. Config validation guarantees MaxShortValue < MaxLongValue.
type RiskLimits struct {
	MaxShortValue decimal.Decimal
	MaxLongValue  decimal.Decimal
}

// Gate is the per-cycle quoting permission derived from position value.
type Gate struct {
	AllowBuy  bool
	AllowSell bool
}

// Evaluate gates each side on the current notional position value.
// Selling pushes the position down, so it stays allowed while the value
// is still above the short bound. Buying pushes it up, allowed while
// below the long bound. At or past a bound the offending side goes
// quiet until fills or cancels bring the position back inside.
func (l RiskLimits) Evaluate(positionValue decimal.Decimal) Gate {
	return Gate{
		AllowBuy:  positionValue.LessThan(l.MaxLongValue),
		AllowSell: positionValue.GreaterThan(l.MaxShortValue),
	}
}
