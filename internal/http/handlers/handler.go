package handlers

import (
	"errors"
	"net/http"

	"cloudmine_backend/internal/service"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	Mining      *service.MiningService
	Ledger      *service.LedgerService
	Payments    *service.PaymentService
	Withdrawals *service.WithdrawalService
}

func NewHandler(mining *service.MiningService, ledger *service.LedgerService, payments *service.PaymentService, withdrawals *service.WithdrawalService) *Handler {
	return &Handler{
		Mining:      mining,
		Ledger:      ledger,
		Payments:    payments,
		Withdrawals: withdrawals,
	}
}

func getUserID(c *gin.Context) (int64, bool) {
	uidVal, ok := c.Get("user_id")
	if !ok {
		return 0, false
	}
	uid, ok := uidVal.(int64)
	return uid, ok
}

// respondErr maps service errors onto HTTP statuses: validation errors are
// the caller's fault (400), conflicts describe state the caller can observe
// (409), anything else is a 500 with a generic body.
func respondErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case service.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case service.IsConflict(err):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
