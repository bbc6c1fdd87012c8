package api

import (
	"time"

	"github.com/uhyunpark/nadoquoter/pkg/bot"
)

// StatusResponse describes the running quoter and its latest cycle.
type StatusResponse struct {
	Status     string `json:"status"`
	Symbol     string `json:"symbol"`
	TickerID   string `json:"ticker_id"`
	ProductID  uint32 `json:"product_id"`
	Subaccount string `json:"subaccount"`
	StartedAt  string `json:"started_at"`
	UptimeSec  int64  `json:"uptime_sec"`

	LastCycle *bot.CycleReport `json:"last_cycle,omitempty"`
}

// OrderInfo is one tracked resting order.
type OrderInfo struct {
	Digest   string    `json:"digest"`
	Side     string    `json:"side"`
	Price    string    `json:"price"`
	Size     string    `json:"size"`
	PlacedAt time.Time `json:"placed_at"`
	AgeSec   float64   `json:"age_sec"`
}

// OrdersResponse lists the orders of the latest cycle snapshot.
type OrdersResponse struct {
	Cycle  uint64      `json:"cycle"`
	Orders []OrderInfo `json:"orders"`
}

// CycleUpdate is the WebSocket frame pushed on channel "cycles".
type CycleUpdate struct {
	Type   string          `json:"type"`
	Report bot.CycleReport `json:"report"`
}

// WSSubscribeRequest is the client -> server subscription message.
type WSSubscribeRequest struct {
	Op       string   `json:"op"`
	Channels []string `json:"channels"`
}
