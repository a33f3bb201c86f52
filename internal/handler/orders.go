package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"predex/internal/models"
	"predex/internal/repository"
	"predex/internal/service"
)

type OrderHandler struct {
	Orders *service.OrderService
}

func (h *OrderHandler) Register(r *gin.Engine) {
	g := r.Group("/api/v1/orders")
	g.POST("", h.place)
	g.GET("", h.list)
	g.GET("/:id", h.get)
	g.POST("/:id/cancel", h.cancel)
}

type placeOrderRequest struct {
	UserID   uint64           `json:"user_id" binding:"required"`
	MarketID uint64           `json:"market_id" binding:"required"`
	Side     models.OrderSide `json:"side" binding:"required"`
	Price    decimal.Decimal  `json:"price" binding:"required"`
	Quantity int64            `json:"quantity" binding:"required"`
}

type placeOrderResponse struct {
	Order  *models.Order `json:"order"`
	Trades int           `json:"trades"`
}

func (h *OrderHandler) place(c *gin.Context) {
	var req placeOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	order, trades, err := h.Orders.Submit(c.Request.Context(), req.UserID, req.MarketID, req.Side, req.Price, req.Quantity)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, placeOrderResponse{Order: order, Trades: trades}, nil)
}

func (h *OrderHandler) list(c *gin.Context) {
	params := repository.ListOrdersParams{
		Limit:    intQuery(c, "limit", 50),
		Offset:   intQuery(c, "offset", 0),
		UserID:   uint64QueryPtr(c, "user_id"),
		MarketID: uint64QueryPtr(c, "market_id"),
	}
	if v := c.Query("status"); v != "" {
		status := models.OrderStatus(v)
		params.Status = &status
	}
	orders, err := h.Orders.List(c.Request.Context(), params)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, orders, nil)
}

func (h *OrderHandler) get(c *gin.Context) {
	id := uint64Param(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	order, err := h.Orders.Get(c.Request.Context(), id)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, order, nil)
}

func (h *OrderHandler) cancel(c *gin.Context) {
	id := uint64Param(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	order, err := h.Orders.Cancel(c.Request.Context(), id)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, order, nil)
}
