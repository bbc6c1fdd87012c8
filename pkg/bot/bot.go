package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/uhyunpark/nadoquoter/params"
	"github.com/uhyunpark/nadoquoter/pkg/nado"
	"github.com/uhyunpark/nadoquoter/pkg/util"
)

// Exchange is the venue surface the quoting loop needs. *nado.Client
// implements it; tests substitute a fake.
type Exchange interface {
	ResolveProduct(ctx context.Context, symbol string) (nado.Product, error)
	Orderbook(ctx context.Context, tickerID string, depth int) (nado.OrderbookSnapshot, error)
	SubaccountInfo(ctx context.Context) (nado.SubaccountInfo, error)
	OpenOrders(ctx context.Context, productID uint32) ([]nado.OpenOrder, error)
	PlaceOrder(ctx context.Context, p nado.PlaceOrderParams) (string, error)
	CancelProductOrders(ctx context.Context, productID uint32) error
}

// CycleReport is the immutable outcome of one quoting cycle, published
// to the status server after the cycle completes.
type CycleReport struct {
	Cycle     uint64          `json:"cycle"`
	Time      time.Time       `json:"time"`
	Skipped   bool            `json:"skipped"`
	SkipCause string          `json:"skip_cause,omitempty"`
	BestBid   decimal.Decimal `json:"best_bid"`
	BestAsk   decimal.Decimal `json:"best_ask"`

	Position      decimal.Decimal `json:"position"`
	PositionValue decimal.Decimal `json:"position_value"`
	AllowBuy      bool            `json:"allow_buy"`
	AllowSell     bool            `json:"allow_sell"`

	BidPrice decimal.Decimal `json:"bid_price"`
	AskPrice decimal.Decimal `json:"ask_price"`

	CancelledAged   bool           `json:"cancelled_aged"`
	ReconcileRemove int            `json:"reconcile_removed"`
	OrdersPlaced    int            `json:"orders_placed"`
	OpenOrders      []TrackedOrder `json:"open_orders"`
}

// errorBackoff is the cycle delay after a step-level failure, kept short
// so a transient gateway blip does not leave stale quotes resting.
const errorBackoff = 2 * time.Second

// Bot runs the quoting lifecycle for a single market.
type Bot struct {
	cfg     params.Config
	ex      Exchange
	reg     *Registry
	clock   util.Clock
	log     *zap.Logger
	product nado.Product
	cycles  uint64

	// reporter receives a copy of each cycle's outcome; nil disables.
	reporter func(CycleReport)
}

func New(cfg params.Config, ex Exchange, log *zap.Logger) *Bot {
	return &Bot{
		cfg:   cfg,
		ex:    ex,
		reg:   NewRegistry(),
		clock: util.RealClock{},
		log:   log,
	}
}

// SetReporter installs the cycle report sink. Must be called before Run.
func (b *Bot) SetReporter(fn func(CycleReport)) { b.reporter = fn }

// SetProduct pins an already-resolved product so Run skips its own
// catalog lookup. Must be called before Run.
func (b *Bot) SetProduct(p nado.Product) { b.product = p }

// Run resolves the product (unless one was pinned) and then quotes
// until ctx is cancelled. An unresolved product is fatal; everything
// after that is absorbed and retried on the next cycle.
func (b *Bot) Run(ctx context.Context) error {
	if b.product == (nado.Product{}) {
		product, err := b.ex.ResolveProduct(ctx, b.cfg.Trading.Symbol)
		if err != nil {
			return fmt.Errorf("resolve product %s: %w", b.cfg.Trading.Symbol, err)
		}
		b.product = product
	}
	b.log.Info("product resolved",
		zap.String("symbol", b.product.Symbol),
		zap.String("ticker_id", b.product.TickerID),
		zap.Uint32("product_id", b.product.ID))

	for {
		report, err := b.cycle(ctx)
		if b.reporter != nil {
			b.reporter(report)
		}

		delay := b.cfg.Trading.RefreshInterval
		if err != nil {
			if ctx.Err() != nil {
				b.drain()
				return nil
			}
			b.log.Warn("cycle failed", zap.Uint64("cycle", report.Cycle), zap.Error(err))
			delay = errorBackoff
		}

		select {
		case <-ctx.Done():
			b.drain()
			return nil
		case <-b.clock.After(delay):
		}
	}
}

// cycle runs one pass: sweep aged orders, reconcile against the venue,
// read position and market, gate, quote, submit.
func (b *Bot) cycle(ctx context.Context) (CycleReport, error) {
	b.cycles++
	mtxCycles.Inc()
	report := CycleReport{Cycle: b.cycles, Time: b.clock.Now()}

	b.sweepAged(ctx, &report)
	b.reconcile(ctx, &report)

	position := b.readPosition(ctx)
	report.Position = position
	mtxPosition.Set(position.InexactFloat64())

	market, err := b.readMarket(ctx)
	if err != nil {
		report.Skipped = true
		report.SkipCause = skipCause(err)
		report.OpenOrders = b.reg.Snapshot()
		if errors.Is(err, nado.ErrNoData) {
			// Empty book: nothing to quote against, wait it out.
			b.log.Debug("book empty, skipping cycle", zap.Uint64("cycle", b.cycles))
			return report, nil
		}
		return report, err
	}
	report.BestBid = market.BestBid
	report.BestAsk = market.BestAsk
	mtxBestBid.Set(market.BestBid.InexactFloat64())
	mtxBestAsk.Set(market.BestAsk.InexactFloat64())

	positionValue := position.Mul(market.Mid())
	report.PositionValue = positionValue
	mtxPositionValue.Set(positionValue.InexactFloat64())

	limits := RiskLimits(b.cfg.Risk)
	gate := limits.Evaluate(positionValue)
	report.AllowBuy = gate.AllowBuy
	report.AllowSell = gate.AllowSell
	if !gate.AllowBuy {
		mtxRiskSuppressed.WithLabelValues("buy").Inc()
	}
	if !gate.AllowSell {
		mtxRiskSuppressed.WithLabelValues("sell").Inc()
	}

	quote, err := ComputeQuote(market, QuoteParams{
		TickSize:     b.cfg.Trading.TickSize,
		InsideMarket: b.cfg.Trading.InsideMarket,
		SpreadPct:    b.cfg.Trading.SpreadPct,
	})
	if err != nil {
		report.Skipped = true
		report.SkipCause = skipCause(err)
		report.OpenOrders = b.reg.Snapshot()
		return report, err
	}
	report.BidPrice = quote.Bid
	report.AskPrice = quote.Ask

	if gate.AllowBuy {
		report.OrdersPlaced += b.submit(ctx, nado.Buy, quote.Bid)
	}
	if gate.AllowSell {
		report.OrdersPlaced += b.submit(ctx, nado.Sell, quote.Ask)
	}

	report.OpenOrders = b.reg.Snapshot()
	mtxOpenOrders.WithLabelValues("buy").Set(float64(b.reg.CountBySide(nado.Buy)))
	mtxOpenOrders.WithLabelValues("sell").Set(float64(b.reg.CountBySide(nado.Sell)))

	b.log.Info("cycle complete",
		zap.Uint64("cycle", b.cycles),
		zap.String("bid", quote.Bid.String()),
		zap.String("ask", quote.Ask.String()),
		zap.String("position", position.String()),
		zap.String("position_value", positionValue.String()),
		zap.Bool("allow_buy", gate.AllowBuy),
		zap.Bool("allow_sell", gate.AllowSell),
		zap.Int("placed", report.OrdersPlaced),
		zap.Int("open", b.reg.Len()))
	return report, nil
}

// sweepAged issues a product-wide cancel once any tracked order reaches
// the configured timeout. The venue only offers a by-product bulk
// cancel, so the unaged orders go with it on the venue side too; only
// the aged entries leave the registry here, the reconciler drops the
// rest as the venue's order list catches up.
func (b *Bot) sweepAged(ctx context.Context, report *CycleReport) {
	now := b.clock.Now()
	if !b.reg.AnyOlderThan(now, b.cfg.Trading.OrderTimeout) {
		return
	}
	if err := b.ex.CancelProductOrders(ctx, b.product.ID); err != nil {
		mtxCycleErrors.WithLabelValues("cancel").Inc()
		b.log.Warn("aged order cancel failed", zap.Error(err))
		return
	}
	mtxCancelSweeps.Inc()
	removed := b.reg.RemoveOlderThan(now, b.cfg.Trading.OrderTimeout)
	b.log.Info("cancelled aged orders",
		zap.Int("aged", removed),
		zap.Int("still_tracked", b.reg.Len()))
	report.CancelledAged = true
}

// reconcile prunes registry entries the venue no longer lists. A failed
// listing keeps the registry as-is; stale entries only cost a skipped
// placement until the next successful reconcile.
func (b *Bot) reconcile(ctx context.Context, report *CycleReport) {
	venueOrders, err := b.ex.OpenOrders(ctx, b.product.ID)
	if err != nil {
		mtxCycleErrors.WithLabelValues("reconcile").Inc()
		b.log.Warn("open order listing failed", zap.Error(err))
		return
	}
	removedBuys, removedSells := Reconcile(b.reg, venueOrders)
	if removedBuys > 0 {
		mtxReconcileRemoved.WithLabelValues("buy").Add(float64(removedBuys))
	}
	if removedSells > 0 {
		mtxReconcileRemoved.WithLabelValues("sell").Add(float64(removedSells))
	}
	report.ReconcileRemove = removedBuys + removedSells
	if report.ReconcileRemove > 0 {
		b.log.Info("reconciled",
			zap.Int("removed_buys", removedBuys),
			zap.Int("removed_sells", removedSells),
			zap.Int("venue_open", len(venueOrders)))
	}
}

// readPosition fetches the perp position, treating any failure as flat.
// A flat read against real exposure only pauses one side for a cycle;
// the next successful read restores the true value.
func (b *Bot) readPosition(ctx context.Context) decimal.Decimal {
	info, err := b.ex.SubaccountInfo(ctx)
	if err != nil {
		mtxCycleErrors.WithLabelValues("position").Inc()
		b.log.Warn("position read failed, assuming flat", zap.Error(err))
		return decimal.Zero
	}
	return info.PerpPosition(b.product.ID)
}

func (b *Bot) readMarket(ctx context.Context) (MarketSnapshot, error) {
	book, err := b.ex.Orderbook(ctx, b.cfg.Trading.TickerID, 1)
	if err != nil {
		mtxCycleErrors.WithLabelValues("market").Inc()
		return MarketSnapshot{}, err
	}
	bid, _ := book.BestBid()
	ask, _ := book.BestAsk()
	return MarketSnapshot{BestBid: bid.Price, BestAsk: ask.Price}, nil
}

// submit places one post-only order on the side, unless the side is
// already at its resting-order cap.
func (b *Bot) submit(ctx context.Context, side nado.Side, price decimal.Decimal) int {
	if b.reg.CountBySide(side) >= b.cfg.Trading.MaxOrdersPerSide {
		return 0
	}
	digest, err := b.ex.PlaceOrder(ctx, nado.PlaceOrderParams{
		ProductID: b.product.ID,
		Side:      side,
		Price:     price,
		Size:      b.cfg.Trading.OrderSize,
		OrderType: nado.OrderTypePostOnly,
		TTL:       b.cfg.Trading.OrderTimeout,
	})
	if err != nil {
		mtxCycleErrors.WithLabelValues("place").Inc()
		b.log.Warn("order placement failed",
			zap.String("side", string(side)),
			zap.String("price", price.String()),
			zap.Error(err))
		return 0
	}
	b.reg.Insert(TrackedOrder{
		Digest:   digest,
		Side:     side,
		Price:    price,
		Size:     b.cfg.Trading.OrderSize,
		PlacedAt: b.clock.Now(),
	})
	mtxOrdersPlaced.WithLabelValues(string(side)).Inc()
	b.log.Info("order placed",
		zap.String("side", string(side)),
		zap.String("price", price.String()),
		zap.String("digest", digest))
	return 1
}

// drain cancels whatever is still resting before shutdown. Best effort
// with a fresh deadline since the run context is already cancelled.
func (b *Bot) drain() {
	if b.reg.Len() == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := b.ex.CancelProductOrders(ctx, b.product.ID); err != nil {
		b.log.Warn("shutdown cancel failed", zap.Error(err))
		return
	}
	b.log.Info("cancelled resting orders on shutdown", zap.Int("count", b.reg.Len()))
	b.reg.Clear()
}

func skipCause(err error) string {
	if errors.Is(err, nado.ErrNoData) {
		return "no_market_data"
	}
	return err.Error()
}
