package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// Balance returns the ledger-derived balance.
func (h *Handler) Balance(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	balance, err := h.Ledger.Balance(c.Request.Context(), userID)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"balance": balance.String()})
}

// LedgerHistory returns recent ledger entries, newest first.
func (h *Handler) LedgerHistory(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	entries, err := h.Ledger.History(c.Request.Context(), userID, limit)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

type withdrawRequest struct {
	Amount        string `json:"amount" binding:"required"`
	CryptoType    string `json:"crypto_type" binding:"required"`
	WalletAddress string `json:"wallet_address" binding:"required"`
}

// RequestWithdrawal reserves a payout. The debit hits the ledger before the
// response is written.
func (h *Handler) RequestWithdrawal(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req withdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount, crypto_type and wallet_address are required"})
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount"})
		return
	}

	w, err := h.Withdrawals.Request(c.Request.Context(), userID, amount, req.CryptoType, req.WalletAddress)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"withdrawal": w})
}

// ListWithdrawals lists the caller's recent withdrawal requests.
func (h *Handler) ListWithdrawals(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	list, err := h.Withdrawals.List(c.Request.Context(), userID, limit)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"withdrawals": list})
}

// Wallets lists the caller's saved withdrawal addresses.
func (h *Handler) Wallets(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	wallets, err := h.Withdrawals.Wallets(c.Request.Context(), userID)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"wallets": wallets})
}
