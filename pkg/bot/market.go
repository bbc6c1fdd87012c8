package bot

import "github.com/shopspring/decimal"

// MarketSnapshot is the top of book for one cycle.
type MarketSnapshot struct {
	BestBid decimal.Decimal
	BestAsk decimal.Decimal
}

func (m MarketSnapshot) Mid() decimal.Decimal {
	return m.BestBid.Add(m.BestAsk).Div(decimal.NewFromInt(2))
}
