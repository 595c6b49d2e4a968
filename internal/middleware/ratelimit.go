package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"lensfolio/api/internal/config"
)

// RateLimit is a fixed-window per-IP limiter. The token and view endpoints
// are skipped: they carry their own access controls and a gallery page burns
// through many image requests.
func RateLimit(cfg config.RateLimitConfig, cache *redis.Client, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cfg.Enabled || cache == nil {
			c.Next()
			return
		}

		path := c.Request.URL.Path
		if strings.Contains(path, "/images/view/") || strings.Contains(path, "/images/token/") {
			c.Next()
			return
		}

		key := fmt.Sprintf("ratelimit:%s", c.ClientIP())

		count, err := cache.Incr(c.Request.Context(), key).Result()
		if err != nil {
			// Fail open: a broken limiter must not take the site down.
			log.Warn().Err(err).Msg("rate limit check failed")
			c.Next()
			return
		}
		if count == 1 {
			if err := cache.Expire(c.Request.Context(), key, cfg.Window).Err(); err != nil {
				log.Warn().Err(err).Msg("rate limit expire failed")
			}
		}

		if count > int64(cfg.Max) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "too_many_requests",
			})
			return
		}

		c.Next()
	}
}
