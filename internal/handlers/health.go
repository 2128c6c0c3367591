package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/resumine/resumine/pkg/response"
)

// HealthHandler reports process and database health.
type HealthHandler struct {
	db      *gorm.DB
	version string
}

func NewHealthHandler(db *gorm.DB, version string) *HealthHandler {
	return &HealthHandler{db: db, version: version}
}

// Health handles GET /healthz.
func (h *HealthHandler) Health(c *gin.Context) {
	status := "ok"
	dbStatus := "ok"

	if sqlDB, err := h.db.DB(); err != nil {
		status, dbStatus = "degraded", "unavailable"
	} else if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		status, dbStatus = "degraded", "unavailable"
	}

	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}

	response.Success(c, code, gin.H{
		"status":   status,
		"database": dbStatus,
		"version":  h.version,
	})
}
