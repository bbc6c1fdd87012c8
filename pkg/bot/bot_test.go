package bot

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/uhyunpark/nadoquoter/params"
	"github.com/uhyunpark/nadoquoter/pkg/nado"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- c.now.Add(d)
	return ch
}

type fakeExchange struct {
	product    nado.Product
	resolveErr error

	book    nado.OrderbookSnapshot
	bookErr error

	info    nado.SubaccountInfo
	infoErr error

	open    []nado.OpenOrder
	openErr error

	placed     []nado.PlaceOrderParams
	placeErr   error
	nextDigest int

	cancels   int
	cancelErr error
}

func (f *fakeExchange) ResolveProduct(_ context.Context, _ string) (nado.Product, error) {
	return f.product, f.resolveErr
}

func (f *fakeExchange) Orderbook(_ context.Context, _ string, _ int) (nado.OrderbookSnapshot, error) {
	return f.book, f.bookErr
}

func (f *fakeExchange) SubaccountInfo(_ context.Context) (nado.SubaccountInfo, error) {
	return f.info, f.infoErr
}

func (f *fakeExchange) OpenOrders(_ context.Context, _ uint32) ([]nado.OpenOrder, error) {
	return f.open, f.openErr
}

func (f *fakeExchange) PlaceOrder(_ context.Context, p nado.PlaceOrderParams) (string, error) {
	if f.placeErr != nil {
		return "", f.placeErr
	}
	f.placed = append(f.placed, p)
	f.nextDigest++
	return fmt.Sprintf("0xd%d", f.nextDigest), nil
}

func (f *fakeExchange) CancelProductOrders(_ context.Context, _ uint32) error {
	if f.cancelErr != nil {
		return f.cancelErr
	}
	f.cancels++
	return nil
}

func bookAt(bid, ask string) nado.OrderbookSnapshot {
	one := decimal.NewFromInt(1)
	return nado.OrderbookSnapshot{
		Bids: []nado.PriceLevel{{Price: mustDec(bid), Size: one}},
		Asks: []nado.PriceLevel{{Price: mustDec(ask), Size: one}},
	}
}

func positionOf(productID uint32, size string) nado.SubaccountInfo {
	return nado.SubaccountInfo{
		PerpBalances: []nado.PerpBalance{{ProductID: productID, Amount: mustDec(size)}},
	}
}

func newTestBot(ex *fakeExchange) (*Bot, *fakeClock) {
	cfg := params.Default()
	cfg.PrivateKey = "test"
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	b := New(cfg, ex, zap.NewNop())
	b.clock = clock
	b.product = nado.Product{ID: 2, Symbol: "BTC-PERP", TickerID: "BTC-PERP_USDT0"}
	return b, clock
}

func TestCyclePlacesBothSides(t *testing.T) {
	ex := &fakeExchange{book: bookAt("99999", "100001")}
	b, _ := newTestBot(ex)

	report, err := b.cycle(context.Background())
	if err != nil {
		t.Fatalf("cycle: %v", err)
	}
	if report.OrdersPlaced != 2 {
		t.Fatalf("placed = %d, want 2", report.OrdersPlaced)
	}
	if len(ex.placed) != 2 {
		t.Fatalf("exchange saw %d orders", len(ex.placed))
	}

	var buy, sell nado.PlaceOrderParams
	for _, p := range ex.placed {
		if p.Side == nado.Buy {
			buy = p
		} else {
			sell = p
		}
	}
	if !buy.Price.Equal(mustDec("99998")) {
		t.Errorf("buy price = %s, want 99998", buy.Price)
	}
	if !sell.Price.Equal(mustDec("100002")) {
		t.Errorf("sell price = %s, want 100002", sell.Price)
	}
	if buy.OrderType != nado.OrderTypePostOnly || sell.OrderType != nado.OrderTypePostOnly {
		t.Error("orders should be post-only")
	}
	if b.reg.Len() != 2 {
		t.Fatalf("registry holds %d orders, want 2", b.reg.Len())
	}
}

func TestCycleSkipsOnEmptyBook(t *testing.T) {
	ex := &fakeExchange{bookErr: nado.ErrNoData}
	b, _ := newTestBot(ex)

	report, err := b.cycle(context.Background())
	if err != nil {
		t.Fatalf("empty book must not surface an error, got %v", err)
	}
	if !report.Skipped || report.SkipCause != "no_market_data" {
		t.Fatalf("report = %+v, want skipped with no_market_data", report)
	}
	if len(ex.placed) != 0 {
		t.Fatal("orders placed without market data")
	}
}

func TestCycleReportsTransportError(t *testing.T) {
	ex := &fakeExchange{bookErr: errors.New("gateway down")}
	b, _ := newTestBot(ex)

	report, err := b.cycle(context.Background())
	if err == nil {
		t.Fatal("transport failure should surface for backoff")
	}
	if !report.Skipped {
		t.Fatal("report should be marked skipped")
	}
	if len(ex.placed) != 0 {
		t.Fatal("orders placed despite market read failure")
	}
}

func TestCycleRespectsPerSideCap(t *testing.T) {
	ex := &fakeExchange{book: bookAt("99999", "100001")}
	b, clock := newTestBot(ex)

	// Three resting buys already; venue confirms them.
	for i := 0; i < 3; i++ {
		d := fmt.Sprintf("0xbuy%d", i)
		b.reg.Insert(TrackedOrder{Digest: d, Side: nado.Buy, PlacedAt: clock.now})
		ex.open = append(ex.open, nado.OpenOrder{Digest: d, ProductID: 2})
	}

	report, err := b.cycle(context.Background())
	if err != nil {
		t.Fatalf("cycle: %v", err)
	}
	if report.OrdersPlaced != 1 {
		t.Fatalf("placed = %d, want 1 (sell only)", report.OrdersPlaced)
	}
	if ex.placed[0].Side != nado.Sell {
		t.Fatalf("placed side = %s, want sell", ex.placed[0].Side)
	}
	if got := b.reg.CountBySide(nado.Buy); got != 3 {
		t.Fatalf("buy count = %d, want 3", got)
	}
}

func TestCycleSuppressesBuysWhenTooLong(t *testing.T) {
	// Position 0.005 BTC at mid 100000 is 500 notional, past the 400 cap.
	ex := &fakeExchange{
		book: bookAt("99999", "100001"),
		info: positionOf(2, "0.005"),
	}
	b, _ := newTestBot(ex)

	report, err := b.cycle(context.Background())
	if err != nil {
		t.Fatalf("cycle: %v", err)
	}
	if report.AllowBuy {
		t.Fatal("buys should be gated off at 500 notional")
	}
	if !report.AllowSell {
		t.Fatal("sells should stay allowed while long")
	}
	if len(ex.placed) != 1 || ex.placed[0].Side != nado.Sell {
		t.Fatalf("placed = %+v, want exactly one sell", ex.placed)
	}
	if !report.PositionValue.Equal(mustDec("500")) {
		t.Fatalf("position value = %s, want 500", report.PositionValue)
	}
}

func TestCycleSuppressesSellsWhenTooShort(t *testing.T) {
	ex := &fakeExchange{
		book: bookAt("99999", "100001"),
		info: positionOf(2, "-0.0045"),
	}
	b, _ := newTestBot(ex)

	report, err := b.cycle(context.Background())
	if err != nil {
		t.Fatalf("cycle: %v", err)
	}
	// -0.0045 * 100000 = -450, past the -400 short bound.
	if report.AllowSell {
		t.Fatal("sells should be gated off at -450 notional")
	}
	if !report.AllowBuy {
		t.Fatal("buys should stay allowed while short")
	}
	if len(ex.placed) != 1 || ex.placed[0].Side != nado.Buy {
		t.Fatalf("placed = %+v, want exactly one buy", ex.placed)
	}
}

func TestCyclePositionReadFailureAssumesFlat(t *testing.T) {
	ex := &fakeExchange{
		book:    bookAt("99999", "100001"),
		infoErr: errors.New("subaccount query failed"),
	}
	b, _ := newTestBot(ex)

	report, err := b.cycle(context.Background())
	if err != nil {
		t.Fatalf("cycle: %v", err)
	}
	if !report.Position.IsZero() {
		t.Fatalf("position = %s, want 0 on read failure", report.Position)
	}
	if !report.AllowBuy || !report.AllowSell {
		t.Fatal("flat fallback should leave both sides allowed")
	}
}

func TestCycleCancelsAgedOrders(t *testing.T) {
	ex := &fakeExchange{book: bookAt("99999", "100001")}
	b, clock := newTestBot(ex)

	// Ages 30s, 10s, 5s against a 25s timeout: only the first is past it.
	// The venue has not digested the cancel yet and still lists the two
	// younger orders.
	for i, age := range []time.Duration{30, 10, 5} {
		d := fmt.Sprintf("0xbuy%d", i)
		b.reg.Insert(TrackedOrder{
			Digest:   d,
			Side:     nado.Buy,
			PlacedAt: clock.now.Add(-age * time.Second),
		})
	}
	ex.open = []nado.OpenOrder{
		{Digest: "0xbuy1", ProductID: 2},
		{Digest: "0xbuy2", ProductID: 2},
	}

	report, err := b.cycle(context.Background())
	if err != nil {
		t.Fatalf("cycle: %v", err)
	}
	if ex.cancels != 1 {
		t.Fatalf("cancels = %d, want exactly one product-wide cancel", ex.cancels)
	}
	if !report.CancelledAged {
		t.Fatal("report should record the cancel sweep")
	}
	// Only the aged entry leaves the registry; the reconciler drops the
	// other two once the venue list catches up.
	if b.reg.Has("0xbuy0") {
		t.Fatal("aged order survived the sweep")
	}
	if !b.reg.Has("0xbuy1") || !b.reg.Has("0xbuy2") {
		t.Fatal("unaged orders must stay tracked until reconciled away")
	}
	// The freed buy slot plus a sell are requoted this cycle.
	if report.OrdersPlaced != 2 {
		t.Fatalf("placed = %d, want 2", report.OrdersPlaced)
	}
	if got := b.reg.CountBySide(nado.Buy); got != 3 {
		t.Fatalf("buy count = %d, want 3", got)
	}
}

func TestCycleCancelFailureKeepsRegistry(t *testing.T) {
	ex := &fakeExchange{
		book:      bookAt("99999", "100001"),
		cancelErr: errors.New("cancel rejected"),
	}
	b, clock := newTestBot(ex)
	b.reg.Insert(TrackedOrder{Digest: "0xold", Side: nado.Buy, PlacedAt: clock.now.Add(-30 * time.Second)})
	ex.open = []nado.OpenOrder{{Digest: "0xold", ProductID: 2}}

	report, err := b.cycle(context.Background())
	if err != nil {
		t.Fatalf("cycle: %v", err)
	}
	if report.CancelledAged {
		t.Fatal("failed cancel must not be reported as a sweep")
	}
	if !b.reg.Has("0xold") {
		t.Fatal("registry dropped an order the venue may still hold")
	}
}

func TestCycleReconcilesFilledOrders(t *testing.T) {
	ex := &fakeExchange{book: bookAt("99999", "100001")}
	b, clock := newTestBot(ex)

	// One buy filled (absent from venue), one sell resting.
	b.reg.Insert(TrackedOrder{Digest: "0xfilled", Side: nado.Buy, PlacedAt: clock.now})
	b.reg.Insert(TrackedOrder{Digest: "0xresting", Side: nado.Sell, PlacedAt: clock.now})
	ex.open = []nado.OpenOrder{{Digest: "0xresting", ProductID: 2}}

	report, err := b.cycle(context.Background())
	if err != nil {
		t.Fatalf("cycle: %v", err)
	}
	if report.ReconcileRemove != 1 {
		t.Fatalf("reconcile removed %d, want 1", report.ReconcileRemove)
	}
	if b.reg.Has("0xfilled") {
		t.Fatal("filled order still tracked after reconcile")
	}
	// The freed buy slot is requoted this same cycle.
	if got := b.reg.CountBySide(nado.Buy); got != 1 {
		t.Fatalf("buy count = %d, want 1 fresh buy", got)
	}
}

func TestCycleReconcileFailureKeepsRegistry(t *testing.T) {
	ex := &fakeExchange{
		book:    bookAt("99999", "100001"),
		openErr: errors.New("listing failed"),
	}
	b, clock := newTestBot(ex)
	b.reg.Insert(TrackedOrder{Digest: "0xa", Side: nado.Buy, PlacedAt: clock.now})

	if _, err := b.cycle(context.Background()); err != nil {
		t.Fatalf("cycle: %v", err)
	}
	if !b.reg.Has("0xa") {
		t.Fatal("reconcile failure must leave the registry untouched")
	}
}

func TestCyclePlaceFailureLeavesRegistryConsistent(t *testing.T) {
	ex := &fakeExchange{
		book:     bookAt("99999", "100001"),
		placeErr: errors.New("post only order would cross"),
	}
	b, _ := newTestBot(ex)

	report, err := b.cycle(context.Background())
	if err != nil {
		t.Fatalf("placement failures are absorbed, got %v", err)
	}
	if report.OrdersPlaced != 0 {
		t.Fatalf("placed = %d, want 0", report.OrdersPlaced)
	}
	if b.reg.Len() != 0 {
		t.Fatal("rejected orders must not enter the registry")
	}
}

func TestRunFatalOnUnresolvedProduct(t *testing.T) {
	ex := &fakeExchange{resolveErr: nado.ErrNotFound}
	b, _ := newTestBot(ex)
	b.product = nado.Product{}

	err := b.Run(context.Background())
	if !errors.Is(err, nado.ErrNotFound) {
		t.Fatalf("Run = %v, want ErrNotFound", err)
	}
}

func TestRunSkipsResolveWhenProductPinned(t *testing.T) {
	ex := &fakeExchange{
		resolveErr: errors.New("catalog should not be hit"),
		book:       bookAt("99999", "100001"),
	}
	b, _ := newTestBot(ex)
	b.SetProduct(nado.Product{ID: 2, Symbol: "BTC-PERP", TickerID: "BTC-PERP_USDT0"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run with pinned product = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after context cancel")
	}
	if len(ex.placed) == 0 {
		t.Fatal("pinned product placed no orders")
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	ex := &fakeExchange{
		product: nado.Product{ID: 2, Symbol: "BTC-PERP", TickerID: "BTC-PERP_USDT0"},
		book:    bookAt("99999", "100001"),
	}
	b, _ := newTestBot(ex)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run after cancel = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after context cancel")
	}
	// Shutdown drains whatever was resting.
	if b.reg.Len() != 0 {
		t.Fatalf("registry holds %d orders after shutdown", b.reg.Len())
	}
}

func TestRunPublishesReports(t *testing.T) {
	ex := &fakeExchange{
		product: nado.Product{ID: 2, Symbol: "BTC-PERP", TickerID: "BTC-PERP_USDT0"},
		book:    bookAt("99999", "100001"),
	}
	b, _ := newTestBot(ex)

	reports := make(chan CycleReport, 16)
	b.SetReporter(func(r CycleReport) {
		select {
		case reports <- r:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = b.Run(ctx) }()

	select {
	case r := <-reports:
		if r.Cycle == 0 {
			t.Fatal("cycle counter should start at 1")
		}
		if !r.BestBid.Equal(mustDec("99999")) {
			t.Fatalf("report best bid = %s", r.BestBid)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no cycle report published")
	}
}
