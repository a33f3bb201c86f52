package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"predex/internal/models"
	"predex/internal/repository"
	"predex/internal/service"
)

type MarketHandler struct {
	Markets    *service.MarketService
	Matcher    *service.MatchingService
	Settlement *service.SettlementService
}

func (h *MarketHandler) Register(r *gin.Engine) {
	e := r.Group("/api/v1/events")
	e.POST("", h.createEvent)
	e.GET("", h.listEvents)

	m := r.Group("/api/v1/markets")
	m.POST("", h.create)
	m.GET("", h.list)
	m.GET("/:id", h.get)
	m.GET("/:id/book", h.book)
	m.GET("/:id/trades", h.trades)
	m.POST("/:id/suspend", h.suspend)
	m.POST("/:id/resume", h.resume)
	m.POST("/:id/match", h.match)
	m.POST("/:id/settle", h.settle)
}

type createEventRequest struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	EndTime     *time.Time `json:"end_time"`
}

func (h *MarketHandler) createEvent(c *gin.Context) {
	var req createEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	event, err := h.Markets.CreateEvent(c.Request.Context(), &models.Event{
		Title:       req.Title,
		Description: req.Description,
		EndTime:     req.EndTime,
	})
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, event, nil)
}

func (h *MarketHandler) listEvents(c *gin.Context) {
	params := repository.ListParams{
		Limit:  intQuery(c, "limit", 50),
		Offset: intQuery(c, "offset", 0),
	}
	events, err := h.Markets.ListEvents(c.Request.Context(), params)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, events, nil)
}

type createMarketRequest struct {
	EventID  uint64         `json:"event_id" binding:"required"`
	Question string         `json:"question" binding:"required"`
	Metadata datatypes.JSON `json:"metadata"`
}

func (h *MarketHandler) create(c *gin.Context) {
	var req createMarketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	market, err := h.Markets.Create(c.Request.Context(), req.EventID, req.Question, req.Metadata)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, market, nil)
}

func (h *MarketHandler) list(c *gin.Context) {
	params := repository.ListMarketsParams{
		Limit:   intQuery(c, "limit", 50),
		Offset:  intQuery(c, "offset", 0),
		EventID: uint64QueryPtr(c, "event_id"),
	}
	if v := c.Query("status"); v != "" {
		status := models.MarketStatus(v)
		params.Status = &status
	}
	markets, err := h.Markets.List(c.Request.Context(), params)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, markets, nil)
}

func (h *MarketHandler) get(c *gin.Context) {
	id := uint64Param(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	market, err := h.Markets.Get(c.Request.Context(), id)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, market, nil)
}

func (h *MarketHandler) book(c *gin.Context) {
	id := uint64Param(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	book, err := h.Markets.Book(c.Request.Context(), id)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, book, nil)
}

func (h *MarketHandler) trades(c *gin.Context) {
	id := uint64Param(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	params := repository.ListParams{
		Limit:  intQuery(c, "limit", 100),
		Offset: intQuery(c, "offset", 0),
	}
	trades, err := h.Markets.Trades(c.Request.Context(), id, params)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, trades, nil)
}

func (h *MarketHandler) suspend(c *gin.Context) {
	h.statusTransition(c, h.Markets.Suspend)
}

func (h *MarketHandler) resume(c *gin.Context) {
	h.statusTransition(c, h.Markets.Resume)
}

func (h *MarketHandler) statusTransition(c *gin.Context, fn func(ctx context.Context, id uint64) error) {
	id := uint64Param(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	if err := fn(c.Request.Context(), id); err != nil {
		Fail(c, err)
		return
	}
	market, err := h.Markets.Get(c.Request.Context(), id)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, market, nil)
}

// match is the operator-triggered re-scan of a market's book.
func (h *MarketHandler) match(c *gin.Context) {
	id := uint64Param(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	trades, err := h.Matcher.MatchMarket(c.Request.Context(), id)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, gin.H{"trades": trades}, nil)
}

type settleRequest struct {
	Outcome models.Outcome `json:"outcome" binding:"required"`
}

func (h *MarketHandler) settle(c *gin.Context) {
	id := uint64Param(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	var req settleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.Settlement.Settle(c.Request.Context(), id, req.Outcome); err != nil {
		Fail(c, err)
		return
	}
	market, err := h.Markets.Get(c.Request.Context(), id)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, market, nil)
}
