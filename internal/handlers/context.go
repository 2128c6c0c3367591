package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/resumine/resumine/internal/middleware"
)

// currentUserID returns the authenticated user id set by the auth middleware.
func currentUserID(c *gin.Context) string {
	return c.GetString(middleware.ContextUserID)
}

// currentSessionID returns the session id set by the auth middleware.
func currentSessionID(c *gin.Context) string {
	return c.GetString(middleware.ContextSessionID)
}
