package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lumilend/backend/internal/auth"
	"github.com/lumilend/backend/internal/domain/pool"
)

type PoolInitializer interface {
	Initialize(ctx context.Context, params pool.InitParams) (pool.Config, error)
}

type AdminHandler struct {
	initializer PoolInitializer
	jwt         *auth.JWTManager
	maxTokenTTL time.Duration
}

func NewAdminHandler(initializer PoolInitializer, jwt *auth.JWTManager, maxTokenTTL time.Duration) *AdminHandler {
	if maxTokenTTL <= 0 {
		maxTokenTTL = 24 * time.Hour
	}
	return &AdminHandler{initializer: initializer, jwt: jwt, maxTokenTTL: maxTokenTTL}
}

func (h *AdminHandler) SystemHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *AdminHandler) InitializePool(c *gin.Context) {
	var req struct {
		AssetID         string `json:"asset_id" binding:"required"`
		InterestRateBPS uint32 `json:"interest_rate_bps"`
		OracleID        string `json:"oracle_id"`
		RewardAssetID   string `json:"reward_asset_id"`
		OracleSymbol    string `json:"oracle_symbol"`
		PoolAccount     string `json:"pool_account" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	cfg, err := h.initializer.Initialize(c.Request.Context(), pool.InitParams{
		AssetID:         req.AssetID,
		InterestRateBPS: req.InterestRateBPS,
		OracleID:        req.OracleID,
		RewardAssetID:   req.RewardAssetID,
		OracleSymbol:    req.OracleSymbol,
		PoolAccount:     req.PoolAccount,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cfg)
}

// IssueToken mints an access token bound to an account. Account holders
// authenticate out of band; this is the operator's way to hand them a token.
func (h *AdminHandler) IssueToken(c *gin.Context) {
	var req struct {
		Account string `json:"account" binding:"required"`
		Role    string `json:"role"`
		TTL     string `json:"ttl"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	role := strings.ToLower(strings.TrimSpace(req.Role))
	if role == "" {
		role = auth.RoleAccount
	}
	if role != auth.RoleAccount && role != auth.RoleAdmin {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_role"})
		return
	}
	ttl := time.Hour
	if req.TTL != "" {
		d, err := time.ParseDuration(req.TTL)
		if err != nil || d <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_ttl"})
			return
		}
		ttl = d
	}
	if ttl > h.maxTokenTTL {
		ttl = h.maxTokenTTL
	}

	token, err := h.jwt.Mint(req.Account, role, ttl)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token_mint_failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"access_token": token,
		"account":      strings.TrimSpace(req.Account),
		"role":         role,
		"expires_at":   time.Now().UTC().Add(ttl).Format(time.RFC3339),
	})
}
