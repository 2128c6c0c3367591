package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/resumine/resumine/internal/auth"
	apperrors "github.com/resumine/resumine/pkg/errors"
	"github.com/resumine/resumine/pkg/response"
)

const (
	// ContextUserID is the gin context key carrying the authenticated user id.
	ContextUserID = "auth.user_id"
	// ContextSessionID is the gin context key carrying the session id.
	ContextSessionID = "auth.session_id"
)

// RequireAuth validates the bearer token and stores the caller's identity in
// the request context.
func RequireAuth(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearer(c.GetHeader("Authorization"))
		if token == "" {
			response.Error(c, apperrors.ErrUnauthorized)
			c.Abort()
			return
		}

		claims, err := jwtService.ValidateAccessToken(token)
		if err != nil {
			response.Error(c, apperrors.ErrUnauthorized.WithInternal(err))
			c.Abort()
			return
		}

		c.Set(ContextUserID, claims.UserID)
		if claims.SessionID != "" {
			c.Set(ContextSessionID, claims.SessionID)
		}
		c.Next()
	}
}

func extractBearer(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
