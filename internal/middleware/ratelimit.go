package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"canvango_backend/internal/metrics"
	"canvango_backend/internal/models"
	"canvango_backend/internal/ratelimit"
	"canvango_backend/internal/services"
)

// RateLimitMiddleware applies a fixed-window limit keyed by
// (endpoint, client IP). Limiter store failures fail open but are
// recorded as an operational event.
func RateLimitMiddleware(limiter *ratelimit.Limiter, audit services.SecurityAuditor, limit, windowSeconds int, enabled bool) gin.HandlerFunc {
	window := time.Duration(windowSeconds) * time.Second

	return func(c *gin.Context) {
		if !enabled {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := ratelimit.Key(c.FullPath(), c.ClientIP())

		result, err := limiter.CheckAndIncrement(ctx, key, limit, window)
		if err != nil {
			audit.Log(ctx, &models.SecurityEvent{
				EventType: models.EventRateLimitDegraded,
				Severity:  models.SeverityHigh,
				SourceIP:  c.ClientIP(),
				Endpoint:  c.FullPath(),
				Details:   datatypes.JSONMap{"error": err.Error()},
			})
			// Fail open: the request proceeds.
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", limit))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", result.Remaining))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", result.ResetAt.Unix()))

		if !result.Allowed {
			metrics.RateLimitRejections.Inc()
			audit.Log(ctx, &models.SecurityEvent{
				EventType: models.EventRateLimited,
				Severity:  models.SeverityMedium,
				SourceIP:  c.ClientIP(),
				Endpoint:  c.FullPath(),
				Details: datatypes.JSONMap{
					"count": result.Total,
					"limit": limit,
				},
			})

			retryAfter := int(time.Until(result.ResetAt).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", fmt.Sprintf("%d", retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"message": "rate limit exceeded",
			})
			return
		}

		c.Next()
	}
}
