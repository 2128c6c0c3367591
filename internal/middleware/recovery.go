package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "github.com/resumine/resumine/pkg/errors"
	"github.com/resumine/resumine/pkg/logger"
	"github.com/resumine/resumine/pkg/response"
)

// Recovery turns panics into a 500 response with the standard error envelope.
func Recovery() gin.HandlerFunc {
	log := logger.WithModule("recovery")

	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic recovered",
					zap.Any("panic", r),
					zap.String("path", c.Request.URL.Path),
					zap.Stack("stack"))
				response.Error(c, apperrors.ErrInternalServer)
				c.Abort()
			}
		}()
		c.Next()
	}
}
