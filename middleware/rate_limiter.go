package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

// RateLimiter creates a Redis-backed fixed-window rate limiter.
func RateLimiter(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()

		// The live feed holds one long connection; allow fewer per minute.
		if c.Request.URL.Path == "/api/checkins/feed" {
			key := "rate_limit:feed:" + clientIP
			handleRateLimit(c, rdb, key, 5, 60*time.Second)
			return
		}

		key := "rate_limit:api:" + clientIP
		handleRateLimit(c, rdb, key, 60, 60*time.Second)
	}
}

// handleRateLimit applies one fixed window to one key.
func handleRateLimit(c *gin.Context, rdb *redis.Client, key string, limit int, duration time.Duration) {
	ctx := context.Background()

	count, err := rdb.Get(ctx, key).Int()
	if err == redis.Nil {
		rdb.Set(ctx, key, 1, duration)
		count = 1
	} else if err != nil {
		// Redis unavailable, let the request through.
		c.Next()
		return
	} else {
		count = int(rdb.Incr(ctx, key).Val())
	}

	c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(limit-count))

	if count > limit {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error": "too many requests, slow down",
		})
		return
	}

	c.Next()
}
