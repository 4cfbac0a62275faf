package repository_test

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/ajharbinger/cohort-matchmaker/internal/database"
	"github.com/ajharbinger/cohort-matchmaker/internal/models"
	"github.com/ajharbinger/cohort-matchmaker/internal/repository"
	"github.com/ajharbinger/cohort-matchmaker/internal/scoring"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRepos(t *testing.T) (*sql.DB, *repository.Repositories) {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("Skipping repository integration test - TEST_DATABASE_URL not set")
	}
	if err := database.RunMigrations(url); err != nil {
		t.Skipf("Skipping repository integration test - migrations failed: %v", err)
	}
	db, err := database.New(url)
	if err != nil {
		t.Skipf("Skipping repository integration test - no connection: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return db.DB, repository.NewRepositories(db.DB)
}

func seedProfile(t *testing.T, db *sql.DB, eventID uuid.UUID, userID uuid.UUID, name string, interests []string, skills *scoring.SkillSet) {
	t.Helper()
	ctx := context.Background()

	profileID := uuid.New()
	var ai, fin, des, mkt, prog interface{}
	if skills != nil {
		ai, fin, des, mkt, prog = skills.AI, skills.Finance, skills.Design, skills.Marketing, skills.Programming
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO profiles (id, user_id, name, event_goal, personality_type, domain_knowledge,
			interests, skills_ai, skills_finance, skills_design, skills_marketing, skills_programming)
		VALUES ($1, $2, $3, 'networking', NULL, 'tech', $4, $5, $6, $7, $8, $9)`,
		profileID, userID, name, pq.Array(interests), ai, fin, des, mkt, prog,
	)
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, `
		INSERT INTO event_registrations (event_id, profile_id, user_id) VALUES ($1, $2, $3)`,
		eventID, profileID, userID,
	)
	require.NoError(t, err)
}

func TestRepositories_GenerationRoundTrip(t *testing.T) {
	db, repos := setupRepos(t)
	ctx := context.Background()

	start := time.Now().Add(-time.Hour)
	event := &models.Event{Name: "Founders Night", StartTime: &start}
	require.NoError(t, repos.Event.Create(ctx, event))

	userA, userB := uuid.New(), uuid.New()
	skills := &scoring.SkillSet{AI: 5, Finance: 1, Design: 3, Marketing: 3, Programming: 3}
	seedProfile(t, db, event.ID, userA, "Ada", []string{"ai", "startups"}, skills)
	seedProfile(t, db, event.ID, userB, "Bo", nil, skills)

	cohort, err := repos.Profile.ListByEvent(ctx, event.ID)
	require.NoError(t, err)
	require.Len(t, cohort, 2)
	assert.Less(t, cohort[0].UserID, cohort[1].UserID)
	for _, p := range cohort {
		assert.Empty(t, p.PersonalityType)
		assert.Equal(t, *skills, p.Skills)
		if p.UserID == userA.String() {
			assert.Equal(t, "ai,startups", p.Interests)
		} else {
			assert.Empty(t, p.Interests)
		}
	}

	pending, err := repos.Event.ListPending(ctx, time.Now(), 0)
	require.NoError(t, err)
	assert.Contains(t, eventIDs(pending), event.ID)

	candidates := []scoring.Candidate{
		{SourceUserID: userA.String(), TargetUserID: userB.String(), Score: 72, Reasons: []string{"Both seeking networking opportunities"}},
		{SourceUserID: userB.String(), TargetUserID: userA.String(), Score: 72},
	}
	err = repos.Tx.WithTransaction(ctx, func(tx *repository.Repositories) error {
		n, err := tx.Match.InsertBatch(ctx, event.ID, candidates)
		if err != nil {
			return err
		}
		assert.Equal(t, 2, n)
		return tx.Event.MarkMatchingCompleted(ctx, event.ID, time.Now())
	})
	require.NoError(t, err)

	got, err := repos.Event.GetByID(ctx, event.ID)
	require.NoError(t, err)
	assert.True(t, got.MatchingCompleted)
	assert.NotNil(t, got.MatchingCompletedAt)

	mine, err := repos.Match.ListForUser(ctx, userA.String(), models.MatchFilters{})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, userB.String(), mine[0].MatchedUserID)
	assert.Equal(t, []string{"Both seeking networking opportunities"}, mine[0].CompatibilityReasons)
	assert.Empty(t, mine[0].ComplementarySkills)

	deleted, err := repos.Match.DeleteByEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, deleted)
}

func TestRepositories_RollbackLeavesFlagUnset(t *testing.T) {
	_, repos := setupRepos(t)
	ctx := context.Background()

	event := &models.Event{Name: "Rollback Night"}
	require.NoError(t, repos.Event.Create(ctx, event))

	boom := errors.New("boom")
	err := repos.Tx.WithTransaction(ctx, func(tx *repository.Repositories) error {
		if err := tx.Event.MarkMatchingCompleted(ctx, event.ID, time.Now()); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := repos.Event.GetByID(ctx, event.ID)
	require.NoError(t, err)
	assert.False(t, got.MatchingCompleted)
}

func TestRepositories_MissingEvent(t *testing.T) {
	_, repos := setupRepos(t)
	ctx := context.Background()

	_, err := repos.Event.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, repository.ErrNotFound)

	err = repos.Event.MarkMatchingCompleted(ctx, uuid.New(), time.Now())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func eventIDs(events []models.Event) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.ID)
	}
	return ids
}
