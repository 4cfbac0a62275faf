package api

import (
	"github.com/ajharbinger/cohort-matchmaker/internal/auth"
	"github.com/ajharbinger/cohort-matchmaker/internal/models"
	"github.com/ajharbinger/cohort-matchmaker/internal/services"
	"github.com/ajharbinger/cohort-matchmaker/pkg/metrics"
	"github.com/gin-gonic/gin"
)

// RouterDeps are the collaborators the HTTP surface is built from
type RouterDeps struct {
	Services *services.Services
	JWT      *auth.JWTService
	Metrics  *metrics.Manager
	DB       HealthChecker
}

// SetupRoutes configures all API routes
func SetupRoutes(r *gin.Engine, deps RouterDeps) {
	healthHandler := NewHealthHandler(deps.DB)
	matchHandler := NewMatchHandler(deps.Services.Generation, deps.Services.Matches)

	// Public routes
	r.GET("/health", healthHandler.GetHealth)
	if deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	// Protected routes
	protected := r.Group("/api/v1")
	protected.Use(auth.JWTMiddleware(deps.JWT))
	{
		protected.GET("/events/:id", matchHandler.GetEvent)
		protected.GET("/matches", matchHandler.ListMyMatches)
	}

	// Backend and operator routes
	privileged := protected.Group("")
	privileged.Use(auth.RequireRole(models.RoleServiceRole, models.RoleAdmin))
	{
		privileged.POST("/events/:id/generate-matches", matchHandler.GenerateMatches)
		privileged.GET("/events/:id/matches", matchHandler.ListEventMatches)
	}
}
