package repository

import (
	"context"
	"time"

	"github.com/ajharbinger/cohort-matchmaker/internal/models"
	"github.com/ajharbinger/cohort-matchmaker/internal/scoring"
	"github.com/google/uuid"
)

// EventRepository defines the interface for event data access
type EventRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error)
	Create(ctx context.Context, event *models.Event) error

	// MarkMatchingCompleted sets the completion flag; ErrNotFound when no row matched.
	MarkMatchingCompleted(ctx context.Context, id uuid.UUID, at time.Time) error

	// ListPending returns events not yet matched whose start time is at or before now.
	ListPending(ctx context.Context, now time.Time, limit int) ([]models.Event, error)
}

// ProfileRepository defines the interface for participant profile access
type ProfileRepository interface {
	// ListByEvent returns the event's registered profiles ordered by user id.
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]scoring.Profile, error)
}

// MatchRepository defines the interface for match data access
type MatchRepository interface {
	InsertBatch(ctx context.Context, eventID uuid.UUID, matches []scoring.Candidate) (int, error)
	DeleteByEvent(ctx context.Context, eventID uuid.UUID) (int64, error)
	ListForUser(ctx context.Context, userID string, filters models.MatchFilters) ([]models.Match, error)
	ListForEvent(ctx context.Context, eventID uuid.UUID, filters models.MatchFilters) ([]models.Match, error)
}

// TransactionManager defines the interface for database transaction management
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(repos *Repositories) error) error
}

// Repositories groups all repository interfaces
type Repositories struct {
	Event   EventRepository
	Profile ProfileRepository
	Match   MatchRepository
	Tx      TransactionManager
}
