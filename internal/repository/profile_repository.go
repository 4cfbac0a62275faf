package repository

import (
	"context"
	"fmt"

	"github.com/ajharbinger/cohort-matchmaker/internal/scoring"
	"github.com/google/uuid"
)

// profileRepository implements ProfileRepository
type profileRepository struct {
	db dbExecutor
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db dbExecutor) ProfileRepository {
	return &profileRepository{db: db}
}

// ListByEvent loads the cohort registered for an event. A participant registered
// more than once appears once; registrations without a profile owner are skipped.
func (r *profileRepository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]scoring.Profile, error) {
	query := `
		SELECT DISTINCT ON (p.user_id)
			p.id::text, p.user_id::text,
			COALESCE(p.name, ''), COALESCE(p.event_goal, ''), COALESCE(p.personality_type, ''),
			COALESCE(p.working_style, ''), COALESCE(p.domain_knowledge, ''),
			COALESCE(p.communication_style, ''), COALESCE(p.decision_making, ''),
			COALESCE(p.tech_buzzword, ''),
			array_to_string(COALESCE(p.interests, '{}'::text[]), ','),
			COALESCE(p.additional_info, ''),
			p.skills_ai, p.skills_finance, p.skills_design, p.skills_marketing, p.skills_programming
		FROM event_registrations r
		JOIN profiles p ON p.id = r.profile_id
		WHERE r.event_id = $1 AND p.user_id IS NOT NULL
		ORDER BY p.user_id, p.id
	`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query event profiles: %w", err)
	}
	defer rows.Close()

	var profiles []scoring.Profile
	for rows.Next() {
		var row profileRow
		if err := rows.Scan(row.dest()...); err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, row.toProfile())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating profiles: %w", err)
	}

	return profiles, nil
}
