package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthChecker is satisfied by *database.DB
type HealthChecker interface {
	HealthCheckContext(ctx context.Context) error
}

// HealthHandler reports service liveness based on the database
type HealthHandler struct {
	db HealthChecker
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db HealthChecker) *HealthHandler {
	return &HealthHandler{db: db}
}

// GetHealth pings the database; 503 when it is unreachable
func (h *HealthHandler) GetHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	body := gin.H{
		"healthy":   true,
		"database":  "ok",
		"timestamp": time.Now(),
	}

	if h.db == nil {
		status = http.StatusServiceUnavailable
		body["healthy"] = false
		body["database"] = "not configured"
	} else if err := h.db.HealthCheckContext(ctx); err != nil {
		status = http.StatusServiceUnavailable
		body["healthy"] = false
		body["database"] = err.Error()
	}

	c.JSON(status, body)
}
