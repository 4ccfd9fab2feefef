package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lumilend/backend/internal/domain/pool"
)

type ActivityReader interface {
	Recent(ctx context.Context, limit int) ([]pool.Event, error)
	ForAccount(ctx context.Context, account string, limit int) ([]pool.Event, error)
}

type ActivityHandler struct {
	reader ActivityReader
}

func NewActivityHandler(reader ActivityReader) *ActivityHandler {
	return &ActivityHandler{reader: reader}
}

func (h *ActivityHandler) Recent(c *gin.Context) {
	limit, ok := parseLimit(c)
	if !ok {
		return
	}
	events, err := h.reader.Recent(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (h *ActivityHandler) ForAccount(c *gin.Context) {
	account := strings.TrimSpace(c.Param("address"))
	if account == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_address"})
		return
	}
	limit, ok := parseLimit(c)
	if !ok {
		return
	}
	events, err := h.reader.ForAccount(c.Request.Context(), account, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"account": account, "events": events})
}

func parseLimit(c *gin.Context) (int, bool) {
	raw := strings.TrimSpace(c.Query("limit"))
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_limit"})
		return 0, false
	}
	return n, true
}
