package handlers

import (
	"crypto/subtle"
	"net/http"

	"cloudmine_backend/internal/service"

	"github.com/gin-gonic/gin"
)

// AuthHandler mints API tokens for the identity edge. The upstream identity
// provider authenticates the user by its own means and exchanges the user id
// for a backend token here, authorized by a shared internal key.
type AuthHandler struct {
	internalKey string
}

func NewAuthHandler(internalKey string) *AuthHandler {
	return &AuthHandler{internalKey: internalKey}
}

type issueTokenRequest struct {
	UserID int64 `json:"user_id" binding:"required"`
}

func (h *AuthHandler) IssueToken(c *gin.Context) {
	if h.internalKey == "" {
		c.JSON(http.StatusForbidden, gin.H{"error": "token issuance disabled"})
		return
	}
	key := c.GetHeader("X-Internal-Key")
	if subtle.ConstantTimeCompare([]byte(key), []byte(h.internalKey)) != 1 {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	var req issueTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	token, err := service.GenerateJWT(req.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}
