package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db    Pinger
	cache Pinger
}

// NewHealthHandler takes a nil cache when redis is not configured.
func NewHealthHandler(db Pinger, cache Pinger) *HealthHandler {
	return &HealthHandler{db: db, cache: cache}
}

func (h *HealthHandler) Health(c *gin.Context) {
	resp := gin.H{
		"status":   "healthy",
		"database": "connected",
	}

	if err := h.db.Ping(c.Request.Context()); err != nil {
		resp["status"] = "unhealthy"
		resp["database"] = "disconnected"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}

	// The rate cache is optional; losing it degrades latency, not correctness.
	if h.cache != nil {
		resp["cache"] = "connected"
		if err := h.cache.Ping(c.Request.Context()); err != nil {
			resp["status"] = "degraded"
			resp["cache"] = "disconnected"
		}
	}

	c.JSON(http.StatusOK, resp)
}
