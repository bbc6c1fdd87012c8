package bot

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/uhyunpark/nadoquoter/pkg/nado"
)

// QuoteParams shapes one two-sided quote.
type QuoteParams struct {
	TickSize decimal.Decimal
	// InsideMarket quotes one tick behind best bid and ask. When false,
	// quotes sit SpreadPct either side of the mid price.
	InsideMarket bool
	SpreadPct    decimal.Decimal
}

// Quote is a price pair ready to submit, bid strictly below ask.
type Quote struct {
	Bid decimal.Decimal
	Ask decimal.Decimal
}

var errDegenerateQuote = errors.New("bot: quote would cross itself")

// ComputeQuote derives both quote prices from the book snapshot. Bids
// round down to the tick, asks round up, so rounding always widens and
// a resting quote can never cross the market it was derived from.
func ComputeQuote(m MarketSnapshot, p QuoteParams) (Quote, error) {
	var rawBid, rawAsk decimal.Decimal
	if p.InsideMarket {
		rawBid = m.BestBid.Sub(p.TickSize)
		rawAsk = m.BestAsk.Add(p.TickSize)
	} else {
		mid := m.Mid()
		halfSpread := mid.Mul(p.SpreadPct).Div(decimal.NewFromInt(2))
		rawBid = mid.Sub(halfSpread)
		rawAsk = mid.Add(halfSpread)
	}

	q := Quote{
		Bid: nado.FloorToIncrement(rawBid, p.TickSize),
		Ask: nado.CeilToIncrement(rawAsk, p.TickSize),
	}

	// Mid-spread quotes can still touch the far side in a thin book.
	if q.Bid.GreaterThanOrEqual(m.BestAsk) {
		q.Bid = nado.FloorToIncrement(m.BestAsk.Sub(p.TickSize), p.TickSize)
	}
	if q.Ask.LessThanOrEqual(m.BestBid) {
		q.Ask = nado.CeilToIncrement(m.BestBid.Add(p.TickSize), p.TickSize)
	}

	if !q.Bid.LessThan(q.Ask) || !q.Bid.IsPositive() {
		return Quote{}, errDegenerateQuote
	}
	return q, nil
}
