// Package metrics provides Prometheus instrumentation for the exchange.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// OrdersPlaced counts accepted orders, partitioned by side.
	OrdersPlaced = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "predex_orders_placed_total",
		Help: "Total number of orders accepted at intake",
	}, []string{"side"})

	// OrdersRejected counts intake rejections by reason.
	OrdersRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "predex_orders_rejected_total",
		Help: "Total number of orders rejected at intake",
	}, []string{"reason"})

	// OrdersCancelled counts user-initiated cancellations.
	OrdersCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "predex_orders_cancelled_total",
		Help: "Total number of orders cancelled",
	})

	// TradesExecuted counts executed trades.
	TradesExecuted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "predex_trades_executed_total",
		Help: "Total number of trades executed",
	})

	// TradeVolume tracks cumulative traded shares per market.
	TradeVolume = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "predex_trade_volume_total",
		Help: "Cumulative trade volume in shares",
	}, []string{"market_id"})

	// MatchDuration observes the wall time of one matching pass.
	MatchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "predex_match_pass_duration_seconds",
		Help:    "Duration of a single matching pass",
		Buckets: prometheus.DefBuckets,
	})

	// SettlementsTotal counts settled markets by winning outcome.
	SettlementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "predex_settlements_total",
		Help: "Total number of markets settled",
	}, []string{"outcome"})

	// StreamClients tracks connected trade-feed subscribers.
	StreamClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "predex_stream_clients",
		Help: "Number of connected trade-feed websocket clients",
	})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
