package middleware

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/charlesng35/wifipass/internal/cache"
	"github.com/charlesng35/wifipass/pkg/errors"
	"github.com/charlesng35/wifipass/pkg/logger"
	"github.com/charlesng35/wifipass/pkg/response"
)

const rateLimitKeyPrefix = "ratelimit:"

// RateLimit limits requests per (clientIP, route) within a fixed window. Counters live in the
// shared cache store so limits hold across replicas when Redis is configured. Store failures
// let the request through.
func RateLimit(store cache.Store, maxRequests int, window time.Duration) gin.HandlerFunc {
	log := logger.WithModule("ratelimit")

	return func(c *gin.Context) {
		if store == nil || maxRequests <= 0 || window <= 0 {
			c.Next()
			return
		}

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		key := fmt.Sprintf("%s%s|%s", rateLimitKeyPrefix, c.ClientIP(), route)

		count, ttl, err := store.IncrementWithTTL(c.Request.Context(), key, window)
		if err != nil {
			log.Warn("rate limit store unavailable", zap.Error(err))
			c.Next()
			return
		}

		remaining := int64(maxRequests) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(maxRequests))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.Itoa(int(ttl.Seconds())))

		if count > int64(maxRequests) {
			c.Header("Retry-After", strconv.Itoa(int(ttl.Seconds())+1))
			response.Error(c, errors.ErrRateLimit)
			c.Abort()
			return
		}

		c.Next()
	}
}
