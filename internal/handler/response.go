package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"predex/internal/service"
)

type apiResponse struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Data    any            `json:"data,omitempty"`
	Meta    map[string]any `json:"meta,omitempty"`
}

func Ok(c *gin.Context, data any, meta map[string]any) {
	c.JSON(http.StatusOK, apiResponse{
		Code:    0,
		Message: "ok",
		Data:    data,
		Meta:    meta,
	})
}

func Error(c *gin.Context, status int, message string, meta map[string]any) {
	c.JSON(status, apiResponse{
		Code:    status,
		Message: message,
		Meta:    meta,
	})
}

// Fail maps a service error onto the HTTP surface: not-founds to 404,
// rejections to 409, bad input to 400, everything else to 500.
func Fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrWalletNotFound),
		errors.Is(err, service.ErrEventNotFound),
		errors.Is(err, service.ErrMarketNotFound),
		errors.Is(err, service.ErrOrderNotFound):
		Error(c, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, service.ErrInsufficientFunds),
		errors.Is(err, service.ErrInvalidMarketState),
		errors.Is(err, service.ErrInvalidOrderState),
		errors.Is(err, service.ErrAlreadySettled):
		Error(c, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, service.ErrInvalidPrice),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrInvalidSide),
		errors.Is(err, service.ErrInvalidOutcome):
		Error(c, http.StatusBadRequest, err.Error(), nil)
	default:
		Error(c, http.StatusInternalServerError, err.Error(), nil)
	}
}
