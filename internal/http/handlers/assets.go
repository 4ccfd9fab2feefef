package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type AssetBalancer interface {
	Balance(ctx context.Context, account string) (int64, error)
}

// AssetSupply changes the circulating supply of a local stub asset.
type AssetSupply interface {
	Mint(ctx context.Context, to string, amount int64) error
	Burn(ctx context.Context, from string, amount int64) error
}

// AssetHandler exposes balances of the pool and reward assets. Mint and burn
// are only wired when the assets are local stubs.
type AssetHandler struct {
	balances map[string]AssetBalancer
	supplies map[string]AssetSupply
}

func NewAssetHandler(balances map[string]AssetBalancer, supplies map[string]AssetSupply) *AssetHandler {
	return &AssetHandler{balances: balances, supplies: supplies}
}

func (h *AssetHandler) CanMint() bool {
	return len(h.supplies) > 0
}

func (h *AssetHandler) Balance(c *gin.Context) {
	asset := strings.ToLower(strings.TrimSpace(c.Param("asset")))
	b, ok := h.balances[asset]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown_asset"})
		return
	}
	account := strings.TrimSpace(c.Param("account"))
	amount, err := b.Balance(c.Request.Context(), account)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"asset": asset, "account": account, "balance": amount})
}

type supplyRequest struct {
	Account string `json:"account" binding:"required"`
	Amount  int64  `json:"amount" binding:"required"`
}

func (h *AssetHandler) bindSupply(c *gin.Context) (string, AssetSupply, supplyRequest, bool) {
	var req supplyRequest
	asset := strings.ToLower(strings.TrimSpace(c.Param("asset")))
	s, ok := h.supplies[asset]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown_asset"})
		return asset, nil, req, false
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return asset, nil, req, false
	}
	return asset, s, req, true
}

func (h *AssetHandler) Mint(c *gin.Context) {
	asset, s, req, ok := h.bindSupply(c)
	if !ok {
		return
	}
	if err := s.Mint(c.Request.Context(), req.Account, req.Amount); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"asset": asset, "account": req.Account, "minted": req.Amount})
}

func (h *AssetHandler) Burn(c *gin.Context) {
	asset, s, req, ok := h.bindSupply(c)
	if !ok {
		return
	}
	if err := s.Burn(c.Request.Context(), req.Account, req.Amount); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"asset": asset, "account": req.Account, "burned": req.Amount})
}
