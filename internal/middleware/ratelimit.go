package middleware

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type Limiter interface {
	Allow(ctx context.Context, principal, action string) (bool, int64, error)
	Capacity() int64
}

// RateLimit throttles an action per authenticated user. It must run after
// Auth. A nil limiter disables the check.
func RateLimit(limiter Limiter, action string, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil || limiter.Capacity() <= 0 {
			c.Next()
			return
		}

		user, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		allowed, remaining, err := limiter.Allow(c.Request.Context(), user.ID, action)
		if err != nil {
			// fail open while Redis is unavailable
			log.Error().Err(err).Str("action", action).Str("user_id", user.ID).Msg("rate limit check failed")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(limiter.Capacity(), 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if !allowed {
			c.Header("Retry-After", "60")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}

		c.Next()
	}
}
