package handlers

import (
	"net/http"

	"cloudmine_backend/internal/plan"

	"github.com/gin-gonic/gin"
)

// Plans lists the purchasable plan catalog.
func (h *Handler) Plans(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"plans": plan.List()})
}

type submitPaymentRequest struct {
	PlanID     string `json:"plan_id" binding:"required"`
	CryptoType string `json:"crypto_type" binding:"required"`
	TxHash     string `json:"tx_hash" binding:"required"`
}

// SubmitPayment records a claimed plan payment and starts verification.
// Responds 202: the payment is pending until the watcher settles it.
func (h *Handler) SubmitPayment(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req submitPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "plan_id, crypto_type and tx_hash are required"})
		return
	}

	payment, err := h.Payments.Submit(c.Request.Context(), userID, req.PlanID, req.CryptoType, req.TxHash)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"payment": payment})
}

// PaymentStatus returns one of the caller's payments for polling.
func (h *Handler) PaymentStatus(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	payment, err := h.Payments.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"payment": payment})
}
