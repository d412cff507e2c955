// internal/middleware/recovery_middleware.go
package middleware

import (
	xerrors "tipster-service/internal/pkg/errors"
	"tipster-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func RecoveryMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("panic recovered",
					zap.Any("error", err),
					zap.String("method", c.Request.Method),
					zap.String("path", c.Request.URL.Path),
					zap.Stack("stack"),
				)
				response.FromError(c, xerrors.Internal("internal server error", nil))
			}
		}()
		c.Next()
	}
}
