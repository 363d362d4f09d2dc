package ratelimit

import (
	"github.com/gin-gonic/gin"

	"github.com/respiratools/bars/internal/errors"
	"github.com/respiratools/bars/internal/monitoring"
)

// Middleware rejects clients that exceed the per-IP rate limit.
func Middleware(limiter *Limiter, metrics *monitoring.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			metrics.IncrementRateLimitBlock()
			appErr := errors.NewRateLimitError("1s")
			errors.LogError(c, appErr)
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(appErr.HTTPStatus, appErr)
			return
		}
		c.Next()
	}
}
