package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// PoolState reports whether the pool has been initialized.
type PoolState interface {
	Initialized() bool
}

type HealthHandler struct {
	ledger Pinger
	pool   PoolState
}

func NewHealthHandler(ledger Pinger, pool PoolState) *HealthHandler {
	return &HealthHandler{ledger: ledger, pool: pool}
}

// Health is liveness only and never touches the ledger.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready requires a reachable ledger. An uninitialized pool is still ready:
// queries answer zeros and an operator can initialize it.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	body := gin.H{"ledger": "ok", "pool": "unknown"}
	if h.pool != nil {
		body["pool"] = "uninitialized"
		if h.pool.Initialized() {
			body["pool"] = "initialized"
		}
	}

	if h.ledger == nil {
		body["status"], body["ledger"] = "not_ready", "missing"
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}
	if err := h.ledger.Ping(ctx); err != nil {
		body["status"], body["ledger"] = "not_ready", "unreachable"
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}
	body["status"] = "ready"
	c.JSON(http.StatusOK, body)
}
