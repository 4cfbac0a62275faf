package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ajharbinger/cohort-matchmaker/internal/models"
	"github.com/ajharbinger/cohort-matchmaker/internal/repository"
	"github.com/ajharbinger/cohort-matchmaker/internal/scoring"
	"github.com/google/uuid"
)

// memStore is an in-memory stand-in for the database shared by the fake repositories.
type memStore struct {
	mu      sync.Mutex
	events  map[uuid.UUID]models.Event
	cohorts map[uuid.UUID][]scoring.Profile
	matches []models.Match

	fetchErr   error
	pendingErr error
	insertErr  error
	listErr    error
}

func newMemStore() *memStore {
	return &memStore{
		events:  map[uuid.UUID]models.Event{},
		cohorts: map[uuid.UUID][]scoring.Profile{},
	}
}

func (s *memStore) repositories() *repository.Repositories {
	return &repository.Repositories{
		Event:   &fakeEventRepo{s},
		Profile: &fakeProfileRepo{s},
		Match:   &fakeMatchRepo{s},
		Tx:      &fakeTx{s},
	}
}

func (s *memStore) addEvent(name string, start time.Time, cohort []scoring.Profile) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	st := start
	s.events[id] = models.Event{ID: id, Name: name, StartTime: &st}
	s.cohorts[id] = cohort
	return id
}

func (s *memStore) event(id uuid.UUID) models.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events[id]
}

func (s *memStore) matchCount(eventID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, m := range s.matches {
		if m.EventID == eventID {
			n++
		}
	}
	return n
}

type fakeEventRepo struct{ s *memStore }

func (r *fakeEventRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.events[id]
	if !ok {
		return nil, fmt.Errorf("event %s: %w", id, repository.ErrNotFound)
	}
	return &e, nil
}

func (r *fakeEventRepo) Create(_ context.Context, event *models.Event) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	r.s.events[event.ID] = *event
	return nil
}

func (r *fakeEventRepo) MarkMatchingCompleted(_ context.Context, id uuid.UUID, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.events[id]
	if !ok {
		return fmt.Errorf("event %s: %w", id, repository.ErrNotFound)
	}
	e.MatchingCompleted = true
	e.MatchingCompletedAt = &at
	r.s.events[id] = e
	return nil
}

func (r *fakeEventRepo) ListPending(_ context.Context, now time.Time, limit int) ([]models.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.pendingErr != nil {
		return nil, r.s.pendingErr
	}
	var out []models.Event
	for _, e := range r.s.events {
		if !e.MatchingCompleted && e.StartTime != nil && !e.StartTime.After(now) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(*out[j].StartTime) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeProfileRepo struct{ s *memStore }

func (r *fakeProfileRepo) ListByEvent(_ context.Context, eventID uuid.UUID) ([]scoring.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.fetchErr != nil {
		return nil, r.s.fetchErr
	}
	return append([]scoring.Profile(nil), r.s.cohorts[eventID]...), nil
}

type fakeMatchRepo struct{ s *memStore }

func (r *fakeMatchRepo) InsertBatch(_ context.Context, eventID uuid.UUID, matches []scoring.Candidate) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.insertErr != nil {
		return 0, r.s.insertErr
	}
	for _, c := range matches {
		r.s.matches = append(r.s.matches, models.Match{
			ID:                   uuid.New(),
			EventID:              eventID,
			UserID:               c.SourceUserID,
			MatchedUserID:        c.TargetUserID,
			MatchScore:           c.Score,
			CompatibilityReasons: c.Reasons,
			ComplementarySkills:  c.ComplementarySkills,
			CreatedAt:            time.Now(),
		})
	}
	return len(matches), nil
}

func (r *fakeMatchRepo) DeleteByEvent(_ context.Context, eventID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	kept := r.s.matches[:0]
	var removed int64
	for _, m := range r.s.matches {
		if m.EventID == eventID {
			removed++
			continue
		}
		kept = append(kept, m)
	}
	r.s.matches = kept
	return removed, nil
}

func (r *fakeMatchRepo) ListForUser(_ context.Context, userID string, filters models.MatchFilters) ([]models.Match, error) {
	return r.list(func(m models.Match) bool { return m.UserID == userID }, filters)
}

func (r *fakeMatchRepo) ListForEvent(_ context.Context, eventID uuid.UUID, filters models.MatchFilters) ([]models.Match, error) {
	return r.list(func(m models.Match) bool { return m.EventID == eventID }, filters)
}

func (r *fakeMatchRepo) list(keep func(models.Match) bool, filters models.MatchFilters) ([]models.Match, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.listErr != nil {
		return nil, r.s.listErr
	}
	out := []models.Match{}
	for _, m := range r.s.matches {
		if keep(m) {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].MatchScore > out[j].MatchScore })
	if filters.Limit > 0 && len(out) > filters.Limit {
		out = out[:filters.Limit]
	}
	return out, nil
}

// fakeTx snapshots the store and restores it when fn fails.
type fakeTx struct{ s *memStore }

func (t *fakeTx) WithTransaction(_ context.Context, fn func(repos *repository.Repositories) error) error {
	t.s.mu.Lock()
	events := make(map[uuid.UUID]models.Event, len(t.s.events))
	for k, v := range t.s.events {
		events[k] = v
	}
	matches := append([]models.Match(nil), t.s.matches...)
	t.s.mu.Unlock()

	if err := fn(t.s.repositories()); err != nil {
		t.s.mu.Lock()
		t.s.events = events
		t.s.matches = matches
		t.s.mu.Unlock()
		return fmt.Errorf("transaction failed: %w", err)
	}
	return nil
}

// testCohort builds n valid profiles with ascending, uuid-shaped user ids.
func testCohort(n int) []scoring.Profile {
	goals := []string{"networking", "hiring", "learning"}
	domains := []string{"tech", "business", "analytics", "creativity"}
	out := make([]scoring.Profile, n)
	for i := range out {
		out[i] = scoring.Profile{
			ID:              fmt.Sprintf("00000000-0000-0000-0000-1000000000%02d", i),
			UserID:          fmt.Sprintf("00000000-0000-0000-0000-0000000000%02d", i),
			Name:            fmt.Sprintf("Person %d", i),
			EventGoal:       goals[i%len(goals)],
			PersonalityType: []string{"introvert", "extrovert"}[i%2],
			DomainKnowledge: domains[i%len(domains)],
			Interests:       "ai, music",
			Skills: scoring.SkillSet{
				AI:          1 + i%5,
				Finance:     5 - i%5,
				Design:      3,
				Marketing:   1 + (i*2)%5,
				Programming: 4,
			},
		}
	}
	return out
}
