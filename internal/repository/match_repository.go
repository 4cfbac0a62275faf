package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ajharbinger/cohort-matchmaker/internal/models"
	"github.com/ajharbinger/cohort-matchmaker/internal/scoring"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// insertChunkSize keeps a multi-row INSERT well below the 65535 bind parameter limit.
const insertChunkSize = 500

const defaultMatchListLimit = 50

// matchRepository implements MatchRepository
type matchRepository struct {
	db dbExecutor
}

// NewMatchRepository creates a new match repository
func NewMatchRepository(db dbExecutor) MatchRepository {
	return &matchRepository{db: db}
}

// InsertBatch stores candidates for an event and returns the number of rows written
func (r *matchRepository) InsertBatch(ctx context.Context, eventID uuid.UUID, matches []scoring.Candidate) (int, error) {
	now := time.Now()
	inserted := 0

	for start := 0; start < len(matches); start += insertChunkSize {
		end := min(start+insertChunkSize, len(matches))
		chunk := matches[start:end]

		const cols = 8
		placeholders := make([]string, 0, len(chunk))
		args := make([]interface{}, 0, len(chunk)*cols)
		for i, m := range chunk {
			base := i * cols
			placeholders = append(placeholders, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
				base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8))
			args = append(args,
				uuid.New(), eventID, m.SourceUserID, m.TargetUserID, m.Score,
				pq.Array(nonNil(m.Reasons)), pq.Array(nonNil(m.ComplementarySkills)), now,
			)
		}

		query := `
			INSERT INTO matches (
				id, event_id, user_id, matched_user_id, match_score,
				compatibility_reasons, complementary_skills, created_at
			) VALUES ` + strings.Join(placeholders, ", ")

		result, err := r.db.ExecContext(ctx, query, args...)
		if err != nil {
			return inserted, fmt.Errorf("failed to insert matches: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return inserted, fmt.Errorf("failed to get rows affected: %w", err)
		}
		inserted += int(n)
	}

	return inserted, nil
}

// DeleteByEvent removes every match generated for an event
func (r *matchRepository) DeleteByEvent(ctx context.Context, eventID uuid.UUID) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM matches WHERE event_id = $1`, eventID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete matches: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

// ListForUser returns the user's matches, best first
func (r *matchRepository) ListForUser(ctx context.Context, userID string, filters models.MatchFilters) ([]models.Match, error) {
	return r.list(ctx, `user_id = $1`, userID, filters)
}

// ListForEvent returns every match of an event, best first
func (r *matchRepository) ListForEvent(ctx context.Context, eventID uuid.UUID, filters models.MatchFilters) ([]models.Match, error) {
	return r.list(ctx, `event_id = $1`, eventID, filters)
}

func (r *matchRepository) list(ctx context.Context, where string, arg interface{}, filters models.MatchFilters) ([]models.Match, error) {
	limit := filters.Limit
	if limit <= 0 {
		limit = defaultMatchListLimit
	}

	query := `
		SELECT id, COALESCE(event_id, '00000000-0000-0000-0000-000000000000'::uuid),
			user_id::text, matched_user_id::text, match_score,
			COALESCE(compatibility_reasons, '{}'::text[]), COALESCE(complementary_skills, '{}'::text[]),
			created_at
		FROM matches
		WHERE ` + where + `
		ORDER BY match_score DESC, created_at DESC, id
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, arg, limit, filters.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	matches := []models.Match{}
	for rows.Next() {
		var m models.Match
		if err := rows.Scan(
			&m.ID, &m.EventID, &m.UserID, &m.MatchedUserID, &m.MatchScore,
			pq.Array(&m.CompatibilityReasons), pq.Array(&m.ComplementarySkills),
			&m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating matches: %w", err)
	}

	return matches, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
