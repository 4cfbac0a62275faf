package models

import (
	"time"

	"github.com/google/uuid"
)

// Event represents a networking event whose registrants are matched as one cohort
type Event struct {
	ID                  uuid.UUID  `json:"id" db:"id"`
	Name                string     `json:"name" db:"name"`
	StartTime           *time.Time `json:"start_time,omitempty" db:"start_time"`
	EndTime             *time.Time `json:"end_time,omitempty" db:"end_time"`
	MatchingCompleted   bool       `json:"matching_completed" db:"matching_completed"`
	MatchingCompletedAt *time.Time `json:"matching_completed_at,omitempty" db:"matching_completed_at"`
	CreatedAt           time.Time  `json:"created_at" db:"created_at"`
}

// Registration links a profile to an event
type Registration struct {
	ID        uuid.UUID `json:"id" db:"id"`
	EventID   uuid.UUID `json:"event_id" db:"event_id"`
	ProfileID uuid.UUID `json:"profile_id" db:"profile_id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
