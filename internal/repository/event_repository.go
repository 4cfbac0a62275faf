package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ajharbinger/cohort-matchmaker/internal/models"
	"github.com/google/uuid"
)

// eventRepository implements EventRepository
type eventRepository struct {
	db dbExecutor
}

// NewEventRepository creates a new event repository
func NewEventRepository(db dbExecutor) EventRepository {
	return &eventRepository{db: db}
}

const eventColumns = `id, name, start_time, end_time, matching_completed, matching_completed_at, created_at`

// GetByID retrieves an event by ID
func (r *eventRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`

	event, err := scanEvent(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("event %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return event, nil
}

// Create creates a new event
func (r *eventRepository) Create(ctx context.Context, event *models.Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	event.CreatedAt = time.Now()

	query := `
		INSERT INTO events (id, name, start_time, end_time, matching_completed, matching_completed_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		event.ID, event.Name, event.StartTime, event.EndTime,
		event.MatchingCompleted, event.MatchingCompletedAt, event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

// MarkMatchingCompleted flags the event as processed
func (r *eventRepository) MarkMatchingCompleted(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `
		UPDATE events SET matching_completed = TRUE, matching_completed_at = $2
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("event %s: %w", id, ErrNotFound)
	}
	return nil
}

// ListPending returns unmatched events that have already started, oldest first
func (r *eventRepository) ListPending(ctx context.Context, now time.Time, limit int) ([]models.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE matching_completed = FALSE AND start_time IS NOT NULL AND start_time <= $1
		ORDER BY start_time ASC, id ASC
	`
	args := []interface{}{now}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending events: %w", err)
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, *event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}
	return events, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEvent(row rowScanner) (*models.Event, error) {
	var (
		event       models.Event
		start, end  sql.NullTime
		completedAt sql.NullTime
	)
	if err := row.Scan(
		&event.ID, &event.Name, &start, &end,
		&event.MatchingCompleted, &completedAt, &event.CreatedAt,
	); err != nil {
		return nil, err
	}
	event.StartTime = nullTimePtr(start)
	event.EndTime = nullTimePtr(end)
	event.MatchingCompletedAt = nullTimePtr(completedAt)
	return &event, nil
}

func nullTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
