package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type startMiningRequest struct {
	CoinType string `json:"coin_type" binding:"required"`
}

// StartMining opens a mining session for the authenticated user.
func (h *Handler) StartMining(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req startMiningRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "coin_type is required"})
		return
	}

	session, err := h.Mining.Start(c.Request.Context(), userID, req.CoinType)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"session": session})
}

// StopMining settles outstanding cycles and stops the active session.
func (h *Handler) StopMining(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	session, err := h.Mining.Stop(c.Request.Context(), userID)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"session": session})
}

// MiningStatus reports the active session and cycle progress.
func (h *Handler) MiningStatus(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	status, err := h.Mining.Status(c.Request.Context(), userID)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}
