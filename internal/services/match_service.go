package services

import (
	"context"
	stderrors "errors"

	"github.com/ajharbinger/cohort-matchmaker/internal/errors"
	"github.com/ajharbinger/cohort-matchmaker/internal/logger"
	"github.com/ajharbinger/cohort-matchmaker/internal/models"
	"github.com/ajharbinger/cohort-matchmaker/internal/repository"
	"github.com/google/uuid"
)

// maxListLimit caps a single page of matches
const maxListLimit = 200

// matchServiceImpl implements MatchService
type matchServiceImpl struct {
	repos  *repository.Repositories
	logger logger.Logger
}

// NewMatchService creates a new match read service
func NewMatchService(repos *repository.Repositories, log logger.Logger) MatchService {
	if log == nil {
		log = logger.NewNop()
	}
	return &matchServiceImpl{repos: repos, logger: log.With("component", "match_service")}
}

// GetEvent retrieves an event and its matching status
func (s *matchServiceImpl) GetEvent(ctx context.Context, eventID string) (*models.Event, error) {
	id, err := uuid.Parse(eventID)
	if err != nil {
		return nil, errors.InvalidInput("invalid event id", err).WithOperation("GetEvent")
	}

	event, err := s.repos.Event.GetByID(ctx, id)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NotFound("event not found", err).WithOperation("GetEvent")
		}
		s.logger.Error("Failed to get event", err, "event_id", eventID)
		return nil, errors.UpstreamFetch("failed to get event", err).WithOperation("GetEvent")
	}
	return event, nil
}

// ListForUser retrieves the caller's matches ordered best first
func (s *matchServiceImpl) ListForUser(ctx context.Context, userID string, filters models.MatchFilters) ([]models.Match, error) {
	if userID == "" {
		return nil, errors.Unauthorized("missing user identity", nil).WithOperation("ListForUser")
	}
	if _, err := uuid.Parse(userID); err != nil {
		return nil, errors.InvalidInput("invalid user id", err).WithOperation("ListForUser")
	}

	matches, err := s.repos.Match.ListForUser(ctx, userID, clampFilters(filters))
	if err != nil {
		s.logger.Error("Failed to list matches for user", err, "user_id", userID)
		return nil, errors.UpstreamFetch("failed to list matches", err).WithOperation("ListForUser")
	}
	return matches, nil
}

// ListForEvent retrieves every match generated for an event
func (s *matchServiceImpl) ListForEvent(ctx context.Context, eventID string, filters models.MatchFilters) ([]models.Match, error) {
	id, err := uuid.Parse(eventID)
	if err != nil {
		return nil, errors.InvalidInput("invalid event id", err).WithOperation("ListForEvent")
	}

	matches, err := s.repos.Match.ListForEvent(ctx, id, clampFilters(filters))
	if err != nil {
		s.logger.Error("Failed to list matches for event", err, "event_id", eventID)
		return nil, errors.UpstreamFetch("failed to list matches", err).WithOperation("ListForEvent")
	}
	return matches, nil
}

func clampFilters(f models.MatchFilters) models.MatchFilters {
	if f.Limit > maxListLimit {
		f.Limit = maxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}
