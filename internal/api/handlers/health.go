package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jcreedon/prop-insights/internal/services"
	"github.com/jcreedon/prop-insights/pkg/database"
)

type HealthHandler struct {
	db    *database.DB
	cache *services.CacheService
}

func NewHealthHandler(db *database.DB, cache *services.CacheService) *HealthHandler {
	return &HealthHandler{
		db:    db,
		cache: cache,
	}
}

// GetHealth reports service and dependency health. The endpoint stays
// 200 when redis is down because the service degrades rather than fails
// without it; a database failure is a 503.
func (h *HealthHandler) GetHealth(c *gin.Context) {
	checks := gin.H{
		"database": "ok",
		"redis":    "ok",
	}
	status := http.StatusOK
	overall := "ok"

	if err := h.db.HealthCheck(); err != nil {
		checks["database"] = "unavailable"
		status = http.StatusServiceUnavailable
		overall = "degraded"
	}
	if err := h.cache.HealthCheck(c.Request.Context()); err != nil {
		checks["redis"] = "unavailable"
	}

	c.JSON(status, gin.H{
		"status":    overall,
		"service":   "prop-insights",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	})
}
