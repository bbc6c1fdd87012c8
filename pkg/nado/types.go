package nado

import (
	"time"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// Decoded gateway responses. Wire payloads carry x18 integer strings; the
// types here expose plain decimals so callers never touch raw encoding.

// Product is one tradable instrument from the asset catalog.
type Product struct {
	ID       uint32
	Symbol   string
	TickerID string
}

// PriceLevel is one resting level of the book.
type PriceLevel struct {
	Price decimal.Decimal
	Size  decimal.Decimal
}

// OrderbookSnapshot is a depth-limited view of the book at query time.
type OrderbookSnapshot struct {
	Bids []PriceLevel // sorted high to low
	Asks []PriceLevel // sorted low to high
}

// BestBid returns the top bid, or false when the bid side is empty.
func (o OrderbookSnapshot) BestBid() (PriceLevel, bool) {
	if len(o.Bids) == 0 {
		return PriceLevel{}, false
	}
	return o.Bids[0], true
}

// BestAsk returns the top ask, or false when the ask side is empty.
func (o OrderbookSnapshot) BestAsk() (PriceLevel, bool) {
	if len(o.Asks) == 0 {
		return PriceLevel{}, false
	}
	return o.Asks[0], true
}

// PerpBalance is a perp position for one product. Amount is signed:
// positive long, negative short, in base units.
type PerpBalance struct {
	ProductID uint32
	Amount    decimal.Decimal
}

// SpotBalance is a spot holding for one product.
type SpotBalance struct {
	ProductID uint32
	Amount    decimal.Decimal
}

// SubaccountInfo is the decoded subaccount state. Absent balance lists
// decode as empty slices, never as an error.
type SubaccountInfo struct {
	PerpBalances []PerpBalance
	SpotBalances []SpotBalance
}

// PerpPosition returns the signed position for productID, zero when the
// subaccount holds none.
func (s SubaccountInfo) PerpPosition(productID uint32) decimal.Decimal {
	for _, b := range s.PerpBalances {
		if b.ProductID == productID {
			return b.Amount
		}
	}
	return decimal.Zero
}

// OpenOrder is one order the venue reports as resting.
type OpenOrder struct {
	Digest    string
	ProductID uint32
	Price     decimal.Decimal
	Amount    decimal.Decimal // signed, negative sells
}

// OrderType selects the execution constraint encoded in an order's appendix.
type OrderType uint64

const (
	OrderTypeDefault  OrderType = 0
	OrderTypeIOC      OrderType = 1
	OrderTypeFOK      OrderType = 2
	OrderTypePostOnly OrderType = 3
)

// Side of an order to place.
type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

// PlaceOrderParams describes one limit order submission. Price must
// already be aligned to the product's price increment.
type PlaceOrderParams struct {
	ProductID uint32
	Side      Side
	Price     decimal.Decimal
	Size      decimal.Decimal // base units, always positive
	OrderType OrderType
	// TTL sets the venue-side expiration relative to submission time.
	TTL time.Duration
}

// ---- wire layer ----

// envelope is the gateway's v1 response frame.
type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  string          `json:"error"`
}

type assetWire struct {
	ProductID uint32 `json:"product_id"`
	Symbol    string `json:"symbol"`
	TickerID  string `json:"ticker_id"`
}

// liquidityWire carries [priceX18, sizeX18] string pairs per level.
type liquidityWire struct {
	Bids [][]string `json:"bids"`
	Asks [][]string `json:"asks"`
}

type balanceWire struct {
	Amount string `json:"amount"`
}

type perpBalanceWire struct {
	ProductID uint32      `json:"product_id"`
	Balance   balanceWire `json:"balance"`
}

type spotBalanceWire struct {
	ProductID uint32      `json:"product_id"`
	Balance   balanceWire `json:"balance"`
}

type subaccountInfoWire struct {
	PerpBalances []perpBalanceWire `json:"perp_balances"`
	SpotBalances []spotBalanceWire `json:"spot_balances"`
}

type openOrderWire struct {
	Digest    string `json:"digest"`
	ProductID uint32 `json:"product_id"`
	PriceX18  string `json:"price_x18"`
	Amount    string `json:"amount"`
}

type openOrdersWire struct {
	Orders []openOrderWire `json:"orders"`
}

type orderWire struct {
	Sender     string `json:"sender"`
	PriceX18   string `json:"priceX18"`
	Amount     string `json:"amount"`
	Expiration string `json:"expiration"`
	Nonce      string `json:"nonce"`
	Appendix   string `json:"appendix"`
}

type placeOrderWire struct {
	ProductID uint32    `json:"product_id"`
	Order     orderWire `json:"order"`
	Signature string    `json:"signature"`
}

type cancelProductOrdersWire struct {
	ProductIDs []uint32 `json:"productIds"`
	Sender     string   `json:"sender"`
	Nonce      string   `json:"nonce"`
	Signature  string   `json:"signature"`
}

type executeWire struct {
	PlaceOrder          *placeOrderWire          `json:"place_order,omitempty"`
	CancelProductOrders *cancelProductOrdersWire `json:"cancel_product_orders,omitempty"`
}

type placeOrderResultWire struct {
	Digest string `json:"digest"`
}
