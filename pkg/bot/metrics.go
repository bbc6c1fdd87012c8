package bot

import "github.com/prometheus/client_golang/prometheus"

var (
	mtxCycles = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "quoter_cycles_total",
		Help: "Quoting cycles completed, including skipped ones.",
	})
	mtxCycleErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "quoter_cycle_errors_total",
		Help: "Step failures absorbed by the loop, by step.",
	}, []string{"step"})
	mtxOrdersPlaced = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "quoter_orders_placed_total",
		Help: "Orders accepted by the gateway, by side.",
	}, []string{"side"})
	mtxCancelSweeps = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "quoter_cancel_sweeps_total",
		Help: "Product-wide cancels issued for aged orders.",
	})
	mtxReconcileRemoved = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "quoter_reconcile_removed_total",
		Help: "Registry entries dropped because the venue no longer lists them, by side.",
	}, []string{"side"})
	mtxRiskSuppressed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "quoter_risk_suppressed_total",
		Help: "Cycles where a side was gated off by position limits, by side.",
	}, []string{"side"})

	mtxPosition = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "quoter_position_size",
		Help: "Signed position size in base units.",
	})
	mtxPositionValue = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "quoter_position_value",
		Help: "Signed position notional at mid.",
	})
	mtxBestBid = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "quoter_best_bid",
		Help: "Best bid from the last book snapshot.",
	})
	mtxBestAsk = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "quoter_best_ask",
		Help: "Best ask from the last book snapshot.",
	})
	mtxOpenOrders = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "quoter_open_orders",
		Help: "Tracked resting orders, by side.",
	}, []string{"side"})
)

func init() {
	prometheus.MustRegister(
		mtxCycles, mtxCycleErrors, mtxOrdersPlaced, mtxCancelSweeps,
		mtxReconcileRemoved, mtxRiskSuppressed,
		mtxPosition, mtxPositionValue, mtxBestBid, mtxBestAsk, mtxOpenOrders,
	)
}
