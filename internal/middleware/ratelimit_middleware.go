// internal/middleware/ratelimit_middleware.go
package middleware

import (
	"context"
	"strconv"

	"tipster-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Limiter counts requests per subject and route.
type Limiter interface {
	Allow(ctx context.Context, subject, route string) (bool, error)
}

// RateLimitMiddleware throttles per actor, or per client IP before Auth().
// A limiter failure lets the request through.
func RateLimitMiddleware(limiter Limiter, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		subject := "ip:" + c.ClientIP()
		if actor, ok := GetActor(c); ok {
			subject = "actor:" + strconv.FormatInt(actor.ID, 10)
		}

		allowed, err := limiter.Allow(c.Request.Context(), subject, c.FullPath())
		if err != nil {
			logger.Warn("rate limiter unavailable", zap.String("subject", subject), zap.Error(err))
			c.Next()
			return
		}
		if !allowed {
			response.TooManyRequests(c, "too many requests, slow down")
			return
		}
		c.Next()
	}
}
