package models

import (
	"time"

	"github.com/google/uuid"
)

// Match is a persisted, directed match from UserID to MatchedUserID
type Match struct {
	ID                   uuid.UUID `json:"id" db:"id"`
	EventID              uuid.UUID `json:"event_id" db:"event_id"`
	UserID               string    `json:"user_id" db:"user_id"`
	MatchedUserID        string    `json:"matched_user_id" db:"matched_user_id"`
	MatchScore           int       `json:"match_score" db:"match_score"`
	CompatibilityReasons []string  `json:"compatibility_reasons" db:"compatibility_reasons"`
	ComplementarySkills  []string  `json:"complementary_skills" db:"complementary_skills"`
	CreatedAt            time.Time `json:"created_at" db:"created_at"`
}

// MatchFilters defines paging for match listings
type MatchFilters struct {
	Limit  int
	Offset int
}

// GenerateMatchesResponse mirrors the body returned by a successful generation
type GenerateMatchesResponse struct {
	Success          bool        `json:"success"`
	MatchesGenerated int         `json:"matchesGenerated"`
	Stats            interface{} `json:"stats,omitempty"`
}
