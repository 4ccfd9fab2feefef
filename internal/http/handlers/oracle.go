package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type PriceSetter interface {
	SetPrice(ctx context.Context, symbol string, price int64) error
}

// OracleHandler lets an operator move the stub oracle's quotes.
type OracleHandler struct {
	prices PriceSetter
}

func NewOracleHandler(prices PriceSetter) *OracleHandler {
	return &OracleHandler{prices: prices}
}

func (h *OracleHandler) SetPrice(c *gin.Context) {
	symbol := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
	var req struct {
		Price int64 `json:"price" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	if err := h.prices.SetPrice(c.Request.Context(), symbol, req.Price); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"symbol": symbol, "price": req.Price})
}
