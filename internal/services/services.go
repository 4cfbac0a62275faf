package services

import (
	"context"

	"github.com/ajharbinger/cohort-matchmaker/internal/logger"
	"github.com/ajharbinger/cohort-matchmaker/internal/models"
	"github.com/ajharbinger/cohort-matchmaker/internal/repository"
	"github.com/ajharbinger/cohort-matchmaker/internal/scoring"
	"github.com/ajharbinger/cohort-matchmaker/pkg/config"
	"github.com/ajharbinger/cohort-matchmaker/pkg/metrics"
)

// Services contains all application services
type Services struct {
	Generation MatchGenerationService
	Matches    MatchService
}

// MatchGenerationService defines the orchestration of match generation runs
type MatchGenerationService interface {
	GenerateForEvent(ctx context.Context, eventID string) (*GenerationStats, error)
	RunPending(ctx context.Context) (*SweepStats, error)
}

// MatchService defines read access to events and generated matches
type MatchService interface {
	GetEvent(ctx context.Context, eventID string) (*models.Event, error)
	ListForUser(ctx context.Context, userID string, filters models.MatchFilters) ([]models.Match, error)
	ListForEvent(ctx context.Context, eventID string, filters models.MatchFilters) ([]models.Match, error)
}

// Dependencies are the shared collaborators services are built from
type Dependencies struct {
	Repos   *repository.Repositories
	Locker  Locker
	Metrics *metrics.Manager
	Logger  logger.Logger
}

// NewServices creates a new Services instance with all dependencies
func NewServices(deps Dependencies, cfg *config.Config) *Services {
	engine := scoring.NewMatchEngine(
		scoring.WithTopK(cfg.MatchTopK),
		scoring.WithWorkers(cfg.ScoringWorkers),
	)

	return &Services{
		Generation: NewMatchGenerationService(deps.Repos, engine, deps.Locker, deps.Metrics, deps.Logger, GenerationConfigFromConfig(cfg)),
		Matches:    NewMatchService(deps.Repos, deps.Logger),
	}
}
