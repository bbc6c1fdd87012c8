// Package nado is an HTTP client for the Nado gateway: catalog and engine
// queries plus EIP-712 signed executes (order placement and cancellation).
package nado

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	backoff "github.com/cenkalti/backoff/v5"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	json "github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/uhyunpark/nadoquoter/pkg/crypto"
	"github.com/uhyunpark/nadoquoter/pkg/util"
)

var (
	// ErrNoData signals an empty or unavailable order book; callers treat
	// it as "skip this cycle", never as fatal.
	ErrNoData = errors.New("nado: no market data")
	// ErrNotFound signals an instrument missing from the asset catalog.
	ErrNotFound = errors.New("nado: product not found")
)

// GatewayError is a non-success response from the gateway.
type GatewayError struct {
	HTTPStatus int
	Message    string
}

func (e *GatewayError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("nado: gateway error (http %d): %s", e.HTTPStatus, e.Message)
	}
	return fmt.Sprintf("nado: gateway error (http %d)", e.HTTPStatus)
}

// Options configures a Client.
type Options struct {
	V1URL   string
	V2URL   string
	ChainID int64
	// VerifyingContract pins the EIP-712 domain; hex address.
	VerifyingContract string
	SubaccountName    string
	HTTPTimeout       time.Duration
	// ExecutesPerSecond throttles signed executes; 0 means no throttle.
	ExecutesPerSecond float64
	// ResolveMaxTries bounds catalog lookups at startup.
	ResolveMaxTries int
}

// Client talks to one gateway on behalf of one subaccount.
type Client struct {
	http   *http.Client
	v1     string
	v2     string
	signer *crypto.Signer
	typed  *crypto.TypedSigner
	sub    Subaccount
	limit  *rate.Limiter
	clock  util.Clock

	resolveMaxTries int

	mu      sync.Mutex
	nonceCt uint64
}

// NewClient builds a client and derives the subaccount identifier from the
// signer's address and the configured name.
func NewClient(opts Options, signer *crypto.Signer) (*Client, error) {
	if signer == nil {
		return nil, fmt.Errorf("nado: signer is required")
	}
	sub, err := NewSubaccount(signer.Address(), opts.SubaccountName)
	if err != nil {
		return nil, err
	}

	timeout := opts.HTTPTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	httpClient := new(http.Client)
	httpClient.Timeout = timeout

	limit := rate.NewLimiter(rate.Inf, 1)
	if opts.ExecutesPerSecond > 0 {
		limit = rate.NewLimiter(rate.Limit(opts.ExecutesPerSecond), 1)
	}

	domain := crypto.DefaultDomain()
	if opts.ChainID > 0 {
		domain.ChainID.SetInt64(opts.ChainID)
	}
	if opts.VerifyingContract != "" {
		domain.VerifyingContract = common.HexToAddress(opts.VerifyingContract)
	}

	tries := opts.ResolveMaxTries
	if tries <= 0 {
		tries = 4
	}

	return &Client{
		http:            httpClient,
		v1:              strings.TrimRight(opts.V1URL, "/"),
		v2:              strings.TrimRight(opts.V2URL, "/"),
		signer:          signer,
		typed:           crypto.NewTypedSigner(domain),
		sub:             sub,
		limit:           limit,
		clock:           util.RealClock{},
		resolveMaxTries: tries,
	}, nil
}

// Subaccount returns the derived subaccount identity.
func (c *Client) Subaccount() Subaccount { return c.sub }

// ResolveProduct looks the symbol up in the v2 asset catalog, matching
// either the symbol or the ticker id. Transient failures are retried with
// exponential backoff; a catalog that answers but lacks the symbol is
// ErrNotFound and not retried.
func (c *Client) ResolveProduct(ctx context.Context, symbol string) (Product, error) {
	backoffCfg := backoff.NewExponentialBackOff()
	var lastErr error
	for attempt := 0; attempt < c.resolveMaxTries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return Product{}, ctx.Err()
			case <-c.clock.After(backoffCfg.NextBackOff()):
			}
		}

		assets, err := c.fetchAssets(ctx)
		if err != nil {
			lastErr = err
			continue
		}
		for _, a := range assets {
			if a.Symbol == symbol || a.TickerID == symbol {
				return Product{ID: a.ProductID, Symbol: a.Symbol, TickerID: a.TickerID}, nil
			}
		}
		return Product{}, fmt.Errorf("%w: %s", ErrNotFound, symbol)
	}
	return Product{}, fmt.Errorf("nado: resolve %s: %w", symbol, lastErr)
}

func (c *Client) fetchAssets(ctx context.Context) ([]assetWire, error) {
	body, err := c.get(ctx, c.v2+"/assets")
	if err != nil {
		return nil, err
	}
	var assets []assetWire
	if err := json.Unmarshal(body, &assets); err != nil {
		return nil, fmt.Errorf("nado: decode assets: %w", err)
	}
	return assets, nil
}

// Orderbook fetches the top levels of the book for tickerID. An empty bid
// or ask side yields ErrNoData.
func (c *Client) Orderbook(ctx context.Context, tickerID string, depth int) (OrderbookSnapshot, error) {
	q := url.Values{}
	q.Set("type", "market_liquidity")
	q.Set("ticker_id", tickerID)
	q.Set("depth", strconv.Itoa(depth))

	data, err := c.query(ctx, q)
	if err != nil {
		return OrderbookSnapshot{}, err
	}

	var wire liquidityWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return OrderbookSnapshot{}, fmt.Errorf("nado: decode liquidity: %w", err)
	}

	snap := OrderbookSnapshot{
		Bids: make([]PriceLevel, 0, len(wire.Bids)),
		Asks: make([]PriceLevel, 0, len(wire.Asks)),
	}
	for _, lvl := range wire.Bids {
		pl, err := decodeLevel(lvl)
		if err != nil {
			return OrderbookSnapshot{}, err
		}
		snap.Bids = append(snap.Bids, pl)
	}
	for _, lvl := range wire.Asks {
		pl, err := decodeLevel(lvl)
		if err != nil {
			return OrderbookSnapshot{}, err
		}
		snap.Asks = append(snap.Asks, pl)
	}

	if len(snap.Bids) == 0 || len(snap.Asks) == 0 {
		return OrderbookSnapshot{}, ErrNoData
	}
	return snap, nil
}

func decodeLevel(lvl []string) (PriceLevel, error) {
	if len(lvl) < 2 {
		return PriceLevel{}, fmt.Errorf("nado: malformed book level %v", lvl)
	}
	price, err := ParseX18(lvl[0])
	if err != nil {
		return PriceLevel{}, err
	}
	size, err := ParseX18(lvl[1])
	if err != nil {
		return PriceLevel{}, err
	}
	return PriceLevel{Price: price, Size: size}, nil
}

// SubaccountInfo fetches balances for the client's subaccount. Missing
// balance lists decode to empty slices.
func (c *Client) SubaccountInfo(ctx context.Context) (SubaccountInfo, error) {
	q := url.Values{}
	q.Set("type", "subaccount_info")
	q.Set("subaccount", c.sub.Hex())

	data, err := c.query(ctx, q)
	if err != nil {
		return SubaccountInfo{}, err
	}

	var wire subaccountInfoWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return SubaccountInfo{}, fmt.Errorf("nado: decode subaccount info: %w", err)
	}

	info := SubaccountInfo{}
	for _, b := range wire.PerpBalances {
		amt, err := ParseX18(b.Balance.Amount)
		if err != nil {
			return SubaccountInfo{}, err
		}
		info.PerpBalances = append(info.PerpBalances, PerpBalance{ProductID: b.ProductID, Amount: amt})
	}
	for _, b := range wire.SpotBalances {
		amt, err := ParseX18(b.Balance.Amount)
		if err != nil {
			return SubaccountInfo{}, err
		}
		info.SpotBalances = append(info.SpotBalances, SpotBalance{ProductID: b.ProductID, Amount: amt})
	}
	return info, nil
}

// OpenOrders fetches the venue's authoritative open-order list for the
// product, the reconciliation ground truth.
func (c *Client) OpenOrders(ctx context.Context, productID uint32) ([]OpenOrder, error) {
	q := url.Values{}
	q.Set("type", "subaccount_orders")
	q.Set("product_id", strconv.FormatUint(uint64(productID), 10))
	q.Set("sender", c.sub.Hex())

	data, err := c.query(ctx, q)
	if err != nil {
		return nil, err
	}

	var wire openOrdersWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("nado: decode open orders: %w", err)
	}

	orders := make([]OpenOrder, 0, len(wire.Orders))
	for _, o := range wire.Orders {
		if o.Digest == "" {
			continue
		}
		order := OpenOrder{Digest: o.Digest, ProductID: o.ProductID}
		if o.PriceX18 != "" {
			if order.Price, err = ParseX18(o.PriceX18); err != nil {
				return nil, err
			}
		}
		if o.Amount != "" {
			if order.Amount, err = ParseX18(o.Amount); err != nil {
				return nil, err
			}
		}
		orders = append(orders, order)
	}
	return orders, nil
}

// PlaceOrder signs and submits one limit order, returning the venue's
// order digest on success.
func (c *Client) PlaceOrder(ctx context.Context, p PlaceOrderParams) (string, error) {
	amount := ToX18(p.Size)
	if p.Side == Sell {
		amount.Neg(amount)
	}

	payload := &crypto.OrderPayload{
		Sender:     c.sub.Bytes32(),
		PriceX18:   ToX18(p.Price),
		Amount:     amount,
		Expiration: uint64(c.clock.Now().Add(p.TTL).Unix()),
		Nonce:      c.nextNonce(),
		Appendix:   uint64(p.OrderType),
	}

	_, sig, err := c.typed.SignOrder(c.signer, payload)
	if err != nil {
		return "", err
	}

	req := executeWire{
		PlaceOrder: &placeOrderWire{
			ProductID: p.ProductID,
			Order: orderWire{
				Sender:     c.sub.Hex(),
				PriceX18:   payload.PriceX18.String(),
				Amount:     payload.Amount.String(),
				Expiration: strconv.FormatUint(payload.Expiration, 10),
				Nonce:      strconv.FormatUint(payload.Nonce, 10),
				Appendix:   strconv.FormatUint(payload.Appendix, 10),
			},
			Signature: hexutil.Encode(sig),
		},
	}

	data, err := c.execute(ctx, req)
	if err != nil {
		return "", err
	}
	var result placeOrderResultWire
	if err := json.Unmarshal(data, &result); err != nil {
		return "", fmt.Errorf("nado: decode place order result: %w", err)
	}
	if result.Digest == "" {
		return "", fmt.Errorf("nado: place order response missing digest")
	}
	return result.Digest, nil
}

// CancelProductOrders cancels every resting order this subaccount has on
// the product. The venue exposes no narrower bulk cancel.
func (c *Client) CancelProductOrders(ctx context.Context, productID uint32) error {
	payload := &crypto.CancelProductsPayload{
		Sender:     c.sub.Bytes32(),
		ProductIDs: []uint32{productID},
		Nonce:      c.nextNonce(),
	}

	sig, err := c.typed.SignCancelProducts(c.signer, payload)
	if err != nil {
		return err
	}

	req := executeWire{
		CancelProductOrders: &cancelProductOrdersWire{
			ProductIDs: payload.ProductIDs,
			Sender:     c.sub.Hex(),
			Nonce:      strconv.FormatUint(payload.Nonce, 10),
			Signature:  hexutil.Encode(sig),
		},
	}

	_, err = c.execute(ctx, req)
	return err
}

// nextNonce builds a gateway nonce: receive-deadline milliseconds in the
// high bits, a process-local counter in the low 20.
func (c *Client) nextNonce() uint64 {
	const recvWindow = 90 * time.Second
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nonceCt++
	ms := uint64(c.clock.Now().Add(recvWindow).UnixMilli())
	return ms<<20 | (c.nonceCt & 0xfffff)
}

// ---- transport ----

func (c *Client) query(ctx context.Context, q url.Values) (json.RawMessage, error) {
	body, err := c.get(ctx, c.v1+"/query?"+q.Encode())
	if err != nil {
		return nil, err
	}
	return decodeEnvelope(body)
}

func (c *Client) execute(ctx context.Context, req executeWire) (json.RawMessage, error) {
	if err := c.limit.Wait(ctx); err != nil {
		return nil, err
	}

	buf, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("nado: encode execute: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.v1+"/execute", bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("nado: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("nado: execute: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("nado: read execute response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &GatewayError{HTTPStatus: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}
	return decodeEnvelope(body)
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("nado: create request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nado: fetch: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("nado: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &GatewayError{HTTPStatus: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}
	return body, nil
}

func decodeEnvelope(body []byte) (json.RawMessage, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("nado: decode envelope: %w", err)
	}
	if env.Status != "success" {
		return nil, &GatewayError{HTTPStatus: http.StatusOK, Message: env.Error}
	}
	return env.Data, nil
}

