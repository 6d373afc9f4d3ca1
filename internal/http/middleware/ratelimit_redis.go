package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"cloudmine_backend/internal/logger"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
)

var redisClient *redis.Client

// InitRedisRateLimiter connects the shared Redis client behind the limiter.
// With an empty addr or a failed ping the client stays nil and RateLimit
// falls back to the in-process limiter, so a Redis outage never takes the
// API down with it.
func InitRedisRateLimiter(addr, password string, db int) {
	if addr == "" {
		return
	}
	redisClient = redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unavailable, using in-process rate limiter", "error", err)
		redisClient = nil
	}
}

// RateLimit is a fixed-window limiter keyed by authenticated user when the
// request carries one, by client IP otherwise. Backed by Redis INCR/EXPIRE
// so the window is shared across replicas; without Redis it degrades to the
// per-process fallback.
func RateLimit(maxRequests int, window time.Duration) gin.HandlerFunc {
	fallback := localRateLimit(maxRequests, window)
	windowSecs := strconv.FormatInt(int64(window.Seconds()), 10)

	return func(c *gin.Context) {
		if redisClient == nil {
			fallback(c)
			return
		}

		key := "ratelimit:" + windowSecs + ":" + limiterIdentity(c)
		ctx := c.Request.Context()

		val, err := redisClient.Incr(ctx, key).Result()
		if err != nil {
			// fail open, the limiter is protection, not a dependency
			c.Next()
			return
		}
		if val == 1 {
			redisClient.Expire(ctx, key, window)
		}

		RLRequests.WithLabelValues(c.FullPath()).Inc()
		if val > int64(maxRequests) {
			RLBlocked.WithLabelValues(c.FullPath()).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}

		c.Next()
	}
}

func limiterIdentity(c *gin.Context) string {
	if id, ok := c.Get(UserIDKey); ok {
		if uid, ok := id.(int64); ok {
			return "u:" + strconv.FormatInt(uid, 10)
		}
	}
	return "ip:" + c.ClientIP()
}
