package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type LoanHandler struct {
	svc PoolService
}

func NewLoanHandler(svc PoolService) *LoanHandler {
	return &LoanHandler{svc: svc}
}

func (h *LoanHandler) RequestLoan(c *gin.Context) {
	var req struct {
		Borrower     string `json:"borrower"`
		Amount       int64  `json:"amount"`
		DurationDays uint32 `json:"duration_days"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	borrower := callerAccount(c, req.Borrower)
	loanID, err := h.svc.RequestLoan(c.Request.Context(), borrower, req.Amount, req.DurationDays)
	if err != nil {
		writeError(c, err)
		return
	}
	loan, err := h.svc.Loan(c.Request.Context(), loanID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"loan_id": loanID, "loan": loan})
}

func (h *LoanHandler) GetLoan(c *gin.Context) {
	loanID, ok := parseLoanID(c)
	if !ok {
		return
	}
	loan, err := h.svc.Loan(c.Request.Context(), loanID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, loan)
}

func (h *LoanHandler) ActiveLoan(c *gin.Context) {
	borrower := strings.TrimSpace(c.Param("address"))
	if borrower == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_address"})
		return
	}
	loan, err := h.svc.ActiveLoan(c.Request.Context(), borrower)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, loan)
}

func (h *LoanHandler) RepayLoan(c *gin.Context) {
	loanID, ok := parseLoanID(c)
	if !ok {
		return
	}
	caller := c.GetString("account")
	if err := h.svc.RepayLoan(c.Request.Context(), caller, loanID); err != nil {
		writeError(c, err)
		return
	}
	h.respondLoan(c, loanID)
}

func (h *LoanHandler) LiquidateDefaulted(c *gin.Context) {
	loanID, ok := parseLoanID(c)
	if !ok {
		return
	}
	if err := h.svc.LiquidateDefaulted(c.Request.Context(), loanID); err != nil {
		writeError(c, err)
		return
	}
	h.respondLoan(c, loanID)
}

func (h *LoanHandler) respondLoan(c *gin.Context, loanID uint64) {
	loan, err := h.svc.Loan(c.Request.Context(), loanID)
	if err != nil {
		writeError(c, err)
		return
	}
	stats, err := h.svc.PoolStats(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"loan": loan, "pool": stats})
}
