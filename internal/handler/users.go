package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"predex/internal/repository"
	"predex/internal/service"
)

type UserHandler struct {
	Users     *service.UserService
	Wallets   *service.WalletService
	Positions *service.PositionService
}

func (h *UserHandler) Register(r *gin.Engine) {
	g := r.Group("/api/v1/users")
	g.POST("", h.create)
	g.GET("", h.list)
	g.GET("/:id", h.get)
	g.GET("/:id/wallet", h.wallet)
	g.POST("/:id/deposit", h.deposit)
	g.POST("/:id/withdraw", h.withdraw)
	g.GET("/:id/positions", h.positions)
	g.GET("/:id/transactions", h.transactions)
}

type createUserRequest struct {
	Username string `json:"username" binding:"required"`
}

func (h *UserHandler) create(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if strings.TrimSpace(req.Username) == "" {
		Error(c, http.StatusBadRequest, "username is required", nil)
		return
	}
	user, err := h.Users.Create(c.Request.Context(), req.Username)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, user, nil)
}

func (h *UserHandler) list(c *gin.Context) {
	params := repository.ListParams{
		Limit:  intQuery(c, "limit", 50),
		Offset: intQuery(c, "offset", 0),
	}
	users, err := h.Users.List(c.Request.Context(), params)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, users, nil)
}

func (h *UserHandler) get(c *gin.Context) {
	id := uint64Param(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	user, err := h.Users.Get(c.Request.Context(), id)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, user, nil)
}

func (h *UserHandler) wallet(c *gin.Context) {
	id := uint64Param(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	wallet, err := h.Wallets.Get(c.Request.Context(), id)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, wallet, nil)
}

type fundsRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

func (h *UserHandler) deposit(c *gin.Context) {
	id := uint64Param(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	var req fundsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	wallet, err := h.Wallets.Deposit(c.Request.Context(), id, req.Amount)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, wallet, nil)
}

func (h *UserHandler) withdraw(c *gin.Context) {
	id := uint64Param(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	var req fundsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	wallet, err := h.Wallets.Withdraw(c.Request.Context(), id, req.Amount)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, wallet, nil)
}

func (h *UserHandler) positions(c *gin.Context) {
	id := uint64Param(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	positions, err := h.Positions.ListByUser(c.Request.Context(), id)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, positions, nil)
}

func (h *UserHandler) transactions(c *gin.Context) {
	id := uint64Param(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	params := repository.ListParams{
		Limit:  intQuery(c, "limit", 100),
		Offset: intQuery(c, "offset", 0),
	}
	items, err := h.Wallets.Repo.ListTransactionsByUser(c.Request.Context(), id, params)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, items, nil)
}
