package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/ajharbinger/cohort-matchmaker/internal/auth"
	"github.com/ajharbinger/cohort-matchmaker/internal/errors"
	"github.com/ajharbinger/cohort-matchmaker/internal/models"
	"github.com/ajharbinger/cohort-matchmaker/internal/services"
	"github.com/gin-gonic/gin"
)

const (
	generateTimeout = 2 * time.Minute
	readTimeout     = 10 * time.Second
)

// MatchHandler serves match generation and match listings
type MatchHandler struct {
	generation services.MatchGenerationService
	matches    services.MatchService
}

// NewMatchHandler creates a new match handler with service injection
func NewMatchHandler(generation services.MatchGenerationService, matches services.MatchService) *MatchHandler {
	return &MatchHandler{
		generation: generation,
		matches:    matches,
	}
}

// GenerateMatches runs match generation for the event in the path
func (h *MatchHandler) GenerateMatches(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), generateTimeout)
	defer cancel()

	stats, err := h.generation.GenerateForEvent(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.GenerateMatchesResponse{
		Success:          true,
		MatchesGenerated: stats.MatchesGenerated,
		Stats:            stats,
	})
}

// GetEvent returns an event and whether matching has completed
func (h *MatchHandler) GetEvent(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readTimeout)
	defer cancel()

	event, err := h.matches.GetEvent(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"event":     event,
		"timestamp": time.Now(),
	})
}

// ListEventMatches returns every match generated for an event
func (h *MatchHandler) ListEventMatches(c *gin.Context) {
	filters, err := parseFilters(c)
	if err != nil {
		respondError(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), readTimeout)
	defer cancel()

	matches, err := h.matches.ListForEvent(ctx, c.Param("id"), filters)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"matches":   matches,
		"count":     len(matches),
		"timestamp": time.Now(),
	})
}

// ListMyMatches returns the caller's matches, best first
func (h *MatchHandler) ListMyMatches(c *gin.Context) {
	caller, ok := auth.CallerFromContext(c)
	if !ok {
		respondError(c, errors.Unauthorized("User not authenticated", nil))
		return
	}

	filters, err := parseFilters(c)
	if err != nil {
		respondError(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), readTimeout)
	defer cancel()

	matches, err := h.matches.ListForUser(ctx, caller.UserID, filters)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"matches":   matches,
		"count":     len(matches),
		"timestamp": time.Now(),
	})
}

func parseFilters(c *gin.Context) (models.MatchFilters, error) {
	var filters models.MatchFilters
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return filters, errors.InvalidInput("limit must be a non-negative integer", err)
		}
		filters.Limit = n
	}
	if raw := c.Query("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return filters, errors.InvalidInput("offset must be a non-negative integer", err)
		}
		filters.Offset = n
	}
	return filters, nil
}
