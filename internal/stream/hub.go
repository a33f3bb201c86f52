// Package stream broadcasts executed trades to websocket subscribers.
package stream

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"predex/internal/metrics"
)

// TradeEvent is the wire payload pushed to trade-feed subscribers.
type TradeEvent struct {
	TradeID    uint64    `json:"trade_id"`
	MarketID   uint64    `json:"market_id"`
	Price      string    `json:"price"`
	Quantity   int64     `json:"quantity"`
	MatchRunID string    `json:"match_run_id"`
	ExecutedAt time.Time `json:"executed_at"`
}

// Hub fans executed trades out to connected clients. Slow subscribers
// are skipped rather than back-pressuring the matching path.
type Hub struct {
	logger *zap.Logger
	buffer int

	mu   sync.Mutex
	subs map[chan []byte]struct{}
}

func NewHub(logger *zap.Logger, bufferSize int) *Hub {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	return &Hub{
		logger: logger,
		buffer: bufferSize,
		subs:   make(map[chan []byte]struct{}),
	}
}

func (h *Hub) Broadcast(ev TradeEvent) {
	if h == nil {
		return
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- payload:
		default:
		}
	}
}

func (h *Hub) subscribe() chan []byte {
	ch := make(chan []byte, h.buffer)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	metrics.StreamClients.Inc()
	return ch
}

func (h *Hub) unsubscribe(ch chan []byte) {
	h.mu.Lock()
	delete(h.subs, ch)
	h.mu.Unlock()
	metrics.StreamClients.Dec()
}

// Handle upgrades the request and streams trade events until the client
// disconnects.
func (h *Hub) Handle(c *gin.Context) {
	conn, err := websocket.Accept(c.Writer, c.Request, nil)
	if err != nil {
		if h.logger != nil {
			h.logger.Warn("websocket accept failed", zap.Error(err))
		}
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	ch := h.subscribe()
	defer h.unsubscribe(ch)

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case payload := <-ch:
			if err := conn.Write(ctx, websocket.MessageText, payload); err != nil {
				return
			}
		}
	}
}
