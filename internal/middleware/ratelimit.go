package middleware

import (
	"fmt"
	"net/http"
	"time"

	pkgredis "github.com/decode-reader/core/internal/pkg/redis"
	"github.com/gin-gonic/gin"
)

const (
	rateLimitMax    = 10
	rateLimitWindow = time.Minute
)

// RateLimit throttles anonymous callers per IP. Explanation requests fan out
// to a paid model provider, so unauthenticated traffic is capped; signed-in
// readers pass through.
func RateLimit(rdb *pkgredis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil || IsAuthenticated(c) {
			c.Next()
			return
		}

		ip := c.ClientIP()
		if ip == "" {
			c.Next()
			return
		}

		windowKey := time.Now().Unix() / int64(rateLimitWindow.Seconds())
		key := fmt.Sprintf("decode:rate_limit:%s:%d", ip, windowKey)

		count, err := rdb.Hit(c.Request.Context(), key, rateLimitWindow)
		if err != nil {
			// Redis trouble never blocks reading.
			c.Next()
			return
		}

		if count > rateLimitMax {
			c.Header("Retry-After", "60")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "too many explanation requests, slow down or sign in",
			})
			return
		}

		c.Next()
	}
}
