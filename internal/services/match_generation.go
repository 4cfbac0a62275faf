package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/ajharbinger/cohort-matchmaker/internal/errors"
	"github.com/ajharbinger/cohort-matchmaker/internal/logger"
	"github.com/ajharbinger/cohort-matchmaker/internal/observability"
	"github.com/ajharbinger/cohort-matchmaker/internal/repository"
	"github.com/ajharbinger/cohort-matchmaker/internal/scoring"
	"github.com/ajharbinger/cohort-matchmaker/pkg/config"
	"github.com/ajharbinger/cohort-matchmaker/pkg/metrics"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrNotEnoughProfiles is the message returned for cohorts smaller than two
const ErrNotEnoughProfiles = "Not enough profiles to generate matches"

// minCohortSize is the smallest cohort that yields any pair
const minCohortSize = 2

// GenerationConfig contains configuration for match generation runs
type GenerationConfig struct {
	PersistMode  string        `json:"persist_mode"`  // append or replace
	LockTTL      time.Duration `json:"lock_ttl"`      // upper bound on a run holding the event lock
	PendingLimit int           `json:"pending_limit"` // max events per sweep, 0 for all
}

// DefaultGenerationConfig returns sensible defaults
func DefaultGenerationConfig() GenerationConfig {
	return GenerationConfig{
		PersistMode:  config.PersistModeAppend,
		LockTTL:      5 * time.Minute,
		PendingLimit: 0,
	}
}

// GenerationConfigFromConfig derives the run configuration from application config
func GenerationConfigFromConfig(cfg *config.Config) GenerationConfig {
	gc := DefaultGenerationConfig()
	if cfg.MatchPersistMode != "" {
		gc.PersistMode = cfg.MatchPersistMode
	}
	if cfg.RunLockTTL > 0 {
		gc.LockTTL = cfg.RunLockTTL
	}
	gc.PendingLimit = cfg.PendingLimit
	return gc
}

// GenerationStats describes one completed generation run
type GenerationStats struct {
	EventID          string        `json:"event_id"`
	Profiles         int           `json:"profiles"`
	PairsEvaluated   int           `json:"pairs_evaluated"`
	MatchesGenerated int           `json:"matches_generated"`
	MatchesReplaced  int64         `json:"matches_replaced"`
	PersistMode      string        `json:"persist_mode"`
	StartTime        time.Time     `json:"start_time"`
	EndTime          time.Time     `json:"end_time"`
	Duration         time.Duration `json:"duration"`
}

func (s *GenerationStats) Summary() string {
	return fmt.Sprintf("event=%s, profiles=%d, pairs=%d, matches=%d, replaced=%d, duration=%v",
		s.EventID, s.Profiles, s.PairsEvaluated, s.MatchesGenerated, s.MatchesReplaced, s.Duration.Round(time.Millisecond))
}

// EventFailure records why one event of a sweep failed
type EventFailure struct {
	EventID string `json:"event_id"`
	Code    string `json:"code"`
	Error   string `json:"error"`
}

// SweepStats describes one pass over pending events
type SweepStats struct {
	StartTime        time.Time      `json:"start_time"`
	EndTime          time.Time      `json:"end_time"`
	Duration         time.Duration  `json:"duration"`
	EventsFound      int            `json:"events_found"`
	EventsSucceeded  int            `json:"events_succeeded"`
	EventsFailed     int            `json:"events_failed"`
	MatchesGenerated int            `json:"matches_generated"`
	Failures         []EventFailure `json:"failures,omitempty"`
}

func (s *SweepStats) Summary() string {
	return fmt.Sprintf("found=%d, succeeded=%d, failed=%d, matches=%d, duration=%v",
		s.EventsFound, s.EventsSucceeded, s.EventsFailed, s.MatchesGenerated, s.Duration.Round(time.Millisecond))
}

// matchGenerationService implements MatchGenerationService
type matchGenerationService struct {
	repos   *repository.Repositories
	engine  *scoring.MatchEngine
	locker  Locker
	metrics *metrics.Manager
	logger  logger.Logger
	tracer  trace.Tracer
	config  GenerationConfig
	now     func() time.Time
}

// NewMatchGenerationService wires the orchestrator. A nil locker falls back to
// an in-process one.
func NewMatchGenerationService(
	repos *repository.Repositories,
	engine *scoring.MatchEngine,
	locker Locker,
	m *metrics.Manager,
	log logger.Logger,
	cfg GenerationConfig,
) MatchGenerationService {
	if locker == nil {
		locker = NewMemoryLocker()
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &matchGenerationService{
		repos:   repos,
		engine:  engine,
		locker:  locker,
		metrics: m,
		logger:  log.With("component", "match_generation"),
		tracer:  observability.Tracer(),
		config:  cfg,
		now:     time.Now,
	}
}

// GenerateForEvent scores the event's cohort and stores the top matches per
// participant together with the completion flag, all or nothing.
func (s *matchGenerationService) GenerateForEvent(ctx context.Context, rawEventID string) (stats *GenerationStats, err error) {
	eventID, parseErr := uuid.Parse(rawEventID)
	if parseErr != nil {
		s.metrics.RecordGeneration(metrics.OutcomeInvalidInput)
		return nil, errors.InvalidInput("invalid event id", parseErr).WithOperation("GenerateForEvent")
	}

	ctx, span := s.tracer.Start(ctx, "matchgen.generate", trace.WithAttributes(
		attribute.String("event.id", eventID.String()),
		attribute.String("matchgen.persist_mode", s.config.PersistMode),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, errors.Message(err))
		}
		span.End()
		s.metrics.RecordGeneration(outcomeFor(err))
	}()

	log := s.logger.With("event_id", eventID.String())

	release, err := s.locker.Acquire(ctx, eventID.String(), s.config.LockTTL)
	if err != nil {
		if stderrors.Is(err, ErrLockHeld) {
			s.metrics.RecordLockConflict()
			log.Warn("Match generation already running for event")
			return nil, errors.Conflict("match generation already running for this event", err).WithOperation("GenerateForEvent")
		}
		log.Error("Failed to acquire run lock", err)
		return nil, errors.InternalError("failed to acquire run lock", err).WithOperation("GenerateForEvent")
	}
	defer func() {
		if relErr := release(context.WithoutCancel(ctx)); relErr != nil {
			log.Warn("Failed to release run lock", "error", relErr)
		}
	}()

	stats = &GenerationStats{
		EventID:     eventID.String(),
		PersistMode: s.config.PersistMode,
		StartTime:   s.now(),
	}

	cohort, err := s.repos.Profile.ListByEvent(ctx, eventID)
	if err != nil {
		log.Error("Error fetching registrations", err)
		return nil, errors.UpstreamFetch("failed to fetch event registrations", err).WithOperation("GenerateForEvent")
	}
	stats.Profiles = len(cohort)
	span.SetAttributes(attribute.Int("matchgen.cohort_size", len(cohort)))

	if len(cohort) < minCohortSize {
		log.Info("Skipping match generation", "profiles", len(cohort))
		return nil, errors.InvalidInput(ErrNotEnoughProfiles, nil).WithOperation("GenerateForEvent")
	}
	if err := scoring.ValidateCohort(cohort); err != nil {
		log.Warn("Rejected cohort", "error", err)
		return nil, errors.InvalidInput("invalid profile data", err).
			WithDetails(err.Error()).
			WithOperation("GenerateForEvent")
	}

	log.Info("Generating matches", "profiles", len(cohort))

	result, err := s.engine.ScoreCohort(ctx, cohort)
	if err != nil {
		log.Error("Scoring aborted", err)
		return nil, errors.InternalError("scoring aborted", err).WithOperation("GenerateForEvent")
	}
	stats.PairsEvaluated = result.PairsEvaluated

	err = s.repos.Tx.WithTransaction(ctx, func(repos *repository.Repositories) error {
		if s.config.PersistMode == config.PersistModeReplace {
			removed, err := repos.Match.DeleteByEvent(ctx, eventID)
			if err != nil {
				return err
			}
			stats.MatchesReplaced = removed
		}

		inserted, err := repos.Match.InsertBatch(ctx, eventID, result.Matches)
		if err != nil {
			return err
		}
		stats.MatchesGenerated = inserted

		return repos.Event.MarkMatchingCompleted(ctx, eventID, s.now())
	})
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			log.Warn("Event not found while completing match generation")
			return nil, errors.NotFound("event not found", err).WithOperation("GenerateForEvent")
		}
		log.Error("Error inserting matches", err)
		return nil, errors.Persistence("failed to persist matches", err).WithOperation("GenerateForEvent")
	}

	stats.EndTime = s.now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	span.SetAttributes(
		attribute.Int("matchgen.pairs_evaluated", stats.PairsEvaluated),
		attribute.Int("matchgen.matches_generated", stats.MatchesGenerated),
	)
	s.metrics.ObserveGeneration(stats.Profiles, stats.PairsEvaluated, stats.MatchesGenerated, stats.Duration)
	log.Info("Match generation completed", "summary", stats.Summary())

	return stats, nil
}

// RunPending generates matches for every started event not yet processed. Events
// are handled one after another; a failing event is recorded and skipped.
func (s *matchGenerationService) RunPending(ctx context.Context) (*SweepStats, error) {
	stats := &SweepStats{StartTime: s.now()}

	events, err := s.repos.Event.ListPending(ctx, stats.StartTime, s.config.PendingLimit)
	if err != nil {
		s.logger.Error("Failed to list pending events", err)
		return stats, errors.UpstreamFetch("failed to list pending events", err).WithOperation("RunPending")
	}
	stats.EventsFound = len(events)

	if len(events) == 0 {
		s.logger.Info("No events need match generation at this time")
	}

	for _, event := range events {
		if ctx.Err() != nil {
			break
		}

		result, err := s.GenerateForEvent(ctx, event.ID.String())
		if err != nil {
			stats.EventsFailed++
			stats.Failures = append(stats.Failures, EventFailure{
				EventID: event.ID.String(),
				Code:    errors.CodeOf(err),
				Error:   errors.Message(err),
			})
			s.logger.Warn("Match generation failed for event", "event_id", event.ID.String(), "event_name", event.Name, "error", err)
			continue
		}
		stats.EventsSucceeded++
		stats.MatchesGenerated += result.MatchesGenerated
	}

	stats.EndTime = s.now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	s.logger.Info("Pending sweep completed", "summary", stats.Summary())

	if err := ctx.Err(); err != nil {
		return stats, errors.InternalError("pending sweep interrupted", err).WithOperation("RunPending")
	}
	return stats, nil
}

func outcomeFor(err error) string {
	if err == nil {
		return metrics.OutcomeSuccess
	}
	switch errors.CodeOf(err) {
	case errors.ErrCodeInvalidInput:
		return metrics.OutcomeInvalidInput
	case errors.ErrCodeConflict:
		return metrics.OutcomeConflict
	case errors.ErrCodeNotFound:
		return metrics.OutcomeNotFound
	default:
		return metrics.OutcomeError
	}
}
