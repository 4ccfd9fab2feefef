package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lumilend/backend/internal/domain/pool"
)

type PoolService interface {
	Deposit(ctx context.Context, account string, amount int64) error
	Withdraw(ctx context.Context, account string, amount int64) error
	RequestLoan(ctx context.Context, borrower string, amount int64, durationDays uint32) (uint64, error)
	RepayLoan(ctx context.Context, caller string, loanID uint64) error
	LiquidateDefaulted(ctx context.Context, loanID uint64) error
	PoolStats(ctx context.Context) (pool.Stats, error)
	LenderInfo(ctx context.Context, address string) (pool.LenderRecord, error)
	Loan(ctx context.Context, loanID uint64) (pool.LoanRecord, error)
	ActiveLoan(ctx context.Context, borrower string) (pool.LoanRecord, error)
	NextLoanID(ctx context.Context) (uint64, error)
	Config(ctx context.Context) (pool.Config, error)
}

type PoolHandler struct {
	svc PoolService
}

func NewPoolHandler(svc PoolService) *PoolHandler {
	return &PoolHandler{svc: svc}
}

type amountRequest struct {
	Account string `json:"account"`
	Amount  int64  `json:"amount"`
}

func (h *PoolHandler) Deposit(c *gin.Context) {
	var req amountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	account := callerAccount(c, req.Account)
	if err := h.svc.Deposit(c.Request.Context(), account, req.Amount); err != nil {
		writeError(c, err)
		return
	}
	h.respondLender(c, account)
}

func (h *PoolHandler) Withdraw(c *gin.Context) {
	var req amountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	account := callerAccount(c, req.Account)
	if err := h.svc.Withdraw(c.Request.Context(), account, req.Amount); err != nil {
		writeError(c, err)
		return
	}
	h.respondLender(c, account)
}

func (h *PoolHandler) respondLender(c *gin.Context, account string) {
	lender, err := h.svc.LenderInfo(c.Request.Context(), account)
	if err != nil {
		writeError(c, err)
		return
	}
	stats, err := h.svc.PoolStats(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"account": account, "lender": lender, "pool": stats})
}

func (h *PoolHandler) Stats(c *gin.Context) {
	stats, err := h.svc.PoolStats(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *PoolHandler) Config(c *gin.Context) {
	cfg, err := h.svc.Config(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	next, err := h.svc.NextLoanID(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"config": cfg, "next_loan_id": next})
}

func (h *PoolHandler) LenderInfo(c *gin.Context) {
	address := strings.TrimSpace(c.Param("address"))
	if address == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_address"})
		return
	}
	rec, err := h.svc.LenderInfo(c.Request.Context(), address)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}
