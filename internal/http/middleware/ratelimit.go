package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

type window struct {
	start time.Time
	count int
}

// localRateLimit is the in-process fallback used when Redis is not
// configured. Single fixed window per identity, state lives in this process
// only.
func localRateLimit(maxRequests int, windowLen time.Duration) gin.HandlerFunc {
	var mu sync.Mutex
	seen := make(map[string]*window)

	return func(c *gin.Context) {
		ident := limiterIdentity(c)
		now := time.Now()

		mu.Lock()
		w, ok := seen[ident]
		if !ok || now.Sub(w.start) > windowLen {
			seen[ident] = &window{start: now, count: 1}
			mu.Unlock()
			c.Next()
			return
		}
		w.count++
		blocked := w.count > maxRequests
		mu.Unlock()

		RLRequests.WithLabelValues(c.FullPath()).Inc()
		if blocked {
			RLBlocked.WithLabelValues(c.FullPath()).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}

		c.Next()
	}
}
