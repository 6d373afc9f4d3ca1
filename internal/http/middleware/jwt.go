package middleware

import (
	"net/http"
	"strings"

	"cloudmine_backend/internal/service"

	"github.com/gin-gonic/gin"
)

// UserIDKey is where the authenticated user id lands in the gin context.
const UserIDKey = "user_id"

// JWT resolves the Authorization bearer token to a user id and aborts with
// 401 when it is missing or invalid.
func JWT() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		userID, err := service.ParseJWT(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(UserIDKey, userID)
		c.Next()
	}
}
