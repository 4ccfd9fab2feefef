package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lumilend/backend/internal/blockchain"
	"github.com/lumilend/backend/internal/domain/pool"
)

var poolErrorStatus = map[uint32]int{
	1:   http.StatusConflict,
	2:   http.StatusConflict,
	3:   http.StatusUnprocessableEntity,
	4:   http.StatusConflict,
	5:   http.StatusNotFound,
	6:   http.StatusConflict,
	7:   http.StatusUnprocessableEntity,
	8:   http.StatusConflict,
	9:   http.StatusForbidden,
	100: http.StatusServiceUnavailable,
	101: http.StatusBadRequest,
	102: http.StatusBadRequest,
	103: http.StatusBadRequest,
	104: http.StatusBadRequest,
}

// writeError maps a pool or collaborator failure onto the response. Pool
// errors carry their numeric code so clients can match on it.
func writeError(c *gin.Context, err error) {
	var pe *pool.Error
	if errors.As(err, &pe) {
		status, ok := poolErrorStatus[pe.Code]
		if !ok {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": pe.Slug, "code": pe.Code})
		return
	}
	switch {
	case errors.Is(err, blockchain.ErrInsufficientFunds):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "asset_insufficient_funds"})
	case errors.Is(err, blockchain.ErrInvalidTransfer):
		c.JSON(http.StatusBadRequest, gin.H{"error": "asset_invalid_transfer"})
	case errors.Is(err, blockchain.ErrPriceUnavailable):
		c.JSON(http.StatusBadGateway, gin.H{"error": "price_unavailable"})
	case errors.Is(err, blockchain.ErrInvalidPrice):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_price"})
	case errors.Is(err, blockchain.ErrReadOnlyOracle):
		c.JSON(http.StatusConflict, gin.H{"error": "oracle_read_only"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "operation_failed"})
	}
}

func parseLoanID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(c.Param("loanId")), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_loan_id"})
		return 0, false
	}
	return id, true
}

// callerAccount resolves the account an operation acts for: the body value
// when given, otherwise the authenticated account.
func callerAccount(c *gin.Context, requested string) string {
	if a := strings.TrimSpace(requested); a != "" {
		return a
	}
	return c.GetString("account")
}
