// Package api serves the operator surface: health and status endpoints,
// the tracked order list, Prometheus metrics, and a WebSocket feed of
// cycle reports.
package api

import (
	"net/http"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/uhyunpark/nadoquoter/pkg/bot"
)

// Info is the static identity shown on the status endpoint.
type Info struct {
	Symbol     string
	TickerID   string
	ProductID  uint32
	Subaccount string
}

// Server exposes read-only state. It never touches the quoting loop's
// registry; it only sees the report copies published after each cycle.
type Server struct {
	info    Info
	router  *mux.Router
	hub     *Hub
	log     *zap.Logger
	started time.Time

	mu   sync.RWMutex
	last *bot.CycleReport
}

func NewServer(info Info, log *zap.Logger) *Server {
	s := &Server{
		info:    info,
		router:  mux.NewRouter(),
		hub:     NewHub(log),
		log:     log,
		started: time.Now(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/status", s.handleStatus).Methods("GET")
	api.HandleFunc("/orders", s.handleOrders).Methods("GET")

	s.router.Handle("/metrics", promhttp.Handler())
	s.router.HandleFunc("/ws", s.handleWebSocket)
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Publish records the cycle outcome and pushes it to subscribers.
func (s *Server) Publish(report bot.CycleReport) {
	s.mu.Lock()
	s.last = &report
	s.mu.Unlock()

	s.hub.BroadcastToChannel("cycles", CycleUpdate{Type: "cycle", Report: report})
}

// Start serves until the listener fails. Run it in its own goroutine.
func (s *Server) Start(addr string) error {
	go s.hub.Run()

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	})

	s.log.Info("status server starting", zap.String("addr", addr))
	return http.ListenAndServe(addr, c.Handler(s.router))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	last := s.last
	s.mu.RUnlock()

	respondJSON(w, StatusResponse{
		Status:     "running",
		Symbol:     s.info.Symbol,
		TickerID:   s.info.TickerID,
		ProductID:  s.info.ProductID,
		Subaccount: s.info.Subaccount,
		StartedAt:  s.started.Format(time.RFC3339),
		UptimeSec:  int64(time.Since(s.started).Seconds()),
		LastCycle:  last,
	})
}

func (s *Server) handleOrders(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	last := s.last
	s.mu.RUnlock()

	if last == nil {
		respondJSON(w, OrdersResponse{Orders: []OrderInfo{}})
		return
	}

	now := time.Now()
	orders := make([]OrderInfo, 0, len(last.OpenOrders))
	for _, o := range last.OpenOrders {
		orders = append(orders, OrderInfo{
			Digest:   o.Digest,
			Side:     string(o.Side),
			Price:    o.Price.String(),
			Size:     o.Size.String(),
			PlacedAt: o.PlacedAt,
			AgeSec:   now.Sub(o.PlacedAt).Seconds(),
		})
	}
	respondJSON(w, OrdersResponse{Cycle: last.Cycle, Orders: orders})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"})
}

func respondJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(data)
}
