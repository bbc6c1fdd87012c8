package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/uhyunpark/nadoquoter/pkg/bot"
	"github.com/uhyunpark/nadoquoter/pkg/nado"
)

func newTestServer() (*Server, *httptest.Server) {
	s := NewServer(Info{
		Symbol:     "BTC-PERP",
		TickerID:   "BTC-PERP_USDT0",
		ProductID:  2,
		Subaccount: "0xabc",
	}, zap.NewNop())
	return s, httptest.NewServer(s.router)
}

func getJSON(t *testing.T, url string, dst interface{}) {
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dst))
}

func TestHealth(t *testing.T) {
	_, srv := newTestServer()
	defer srv.Close()

	var body map[string]string
	getJSON(t, srv.URL+"/health", &body)
	require.Equal(t, "ok", body["status"])
}

func TestStatusBeforeFirstCycle(t *testing.T) {
	_, srv := newTestServer()
	defer srv.Close()

	var status StatusResponse
	getJSON(t, srv.URL+"/api/v1/status", &status)
	require.Equal(t, "running", status.Status)
	require.Equal(t, "BTC-PERP", status.Symbol)
	require.Equal(t, uint32(2), status.ProductID)
	require.Nil(t, status.LastCycle)
}

func TestStatusReflectsPublishedCycle(t *testing.T) {
	s, srv := newTestServer()
	defer srv.Close()

	s.Publish(bot.CycleReport{
		Cycle:   7,
		Time:    time.Now(),
		BestBid: decimal.NewFromInt(99999),
		BestAsk: decimal.NewFromInt(100001),
	})

	var status StatusResponse
	getJSON(t, srv.URL+"/api/v1/status", &status)
	require.NotNil(t, status.LastCycle)
	require.Equal(t, uint64(7), status.LastCycle.Cycle)
	require.True(t, status.LastCycle.BestBid.Equal(decimal.NewFromInt(99999)))
}

func TestOrdersEndpoint(t *testing.T) {
	s, srv := newTestServer()
	defer srv.Close()

	var empty OrdersResponse
	getJSON(t, srv.URL+"/api/v1/orders", &empty)
	require.Empty(t, empty.Orders)

	s.Publish(bot.CycleReport{
		Cycle: 3,
		OpenOrders: []bot.TrackedOrder{{
			Digest:   "0xaaa",
			Side:     nado.Buy,
			Price:    decimal.NewFromInt(99998),
			Size:     decimal.RequireFromString("0.0015"),
			PlacedAt: time.Now().Add(-3 * time.Second),
		}},
	})

	var orders OrdersResponse
	getJSON(t, srv.URL+"/api/v1/orders", &orders)
	require.Equal(t, uint64(3), orders.Cycle)
	require.Len(t, orders.Orders, 1)
	require.Equal(t, "0xaaa", orders.Orders[0].Digest)
	require.Equal(t, "buy", orders.Orders[0].Side)
	require.Greater(t, orders.Orders[0].AgeSec, 0.0)
}

func TestMetricsEndpoint(t *testing.T) {
	_, srv := newTestServer()
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
