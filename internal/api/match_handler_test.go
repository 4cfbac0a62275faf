package api

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ajharbinger/cohort-matchmaker/internal/auth"
	"github.com/ajharbinger/cohort-matchmaker/internal/errors"
	"github.com/ajharbinger/cohort-matchmaker/internal/models"
	"github.com/ajharbinger/cohort-matchmaker/internal/services"
	"github.com/ajharbinger/cohort-matchmaker/pkg/metrics"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "api-test-secret"

// mockGeneration records calls and returns canned results
type mockGeneration struct {
	stats    *services.GenerationStats
	err      error
	eventIDs []string
}

func (m *mockGeneration) GenerateForEvent(_ context.Context, eventID string) (*services.GenerationStats, error) {
	m.eventIDs = append(m.eventIDs, eventID)
	return m.stats, m.err
}

func (m *mockGeneration) RunPending(context.Context) (*services.SweepStats, error) {
	return &services.SweepStats{}, nil
}

// mockMatches serves matches from memory
type mockMatches struct {
	event       *models.Event
	matches     []models.Match
	err         error
	lastUserID  string
	lastFilters models.MatchFilters
}

func (m *mockMatches) GetEvent(_ context.Context, eventID string) (*models.Event, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.event, nil
}

func (m *mockMatches) ListForUser(_ context.Context, userID string, filters models.MatchFilters) ([]models.Match, error) {
	m.lastUserID = userID
	m.lastFilters = filters
	if m.err != nil {
		return nil, m.err
	}
	return m.matches, nil
}

func (m *mockMatches) ListForEvent(_ context.Context, _ string, filters models.MatchFilters) ([]models.Match, error) {
	m.lastFilters = filters
	if m.err != nil {
		return nil, m.err
	}
	return m.matches, nil
}

type pinger struct{ err error }

func (p pinger) HealthCheckContext(context.Context) error { return p.err }

func setupRouter(gen *mockGeneration, matches *mockMatches, db HealthChecker) (*gin.Engine, *auth.JWTService) {
	gin.SetMode(gin.TestMode)
	jwtService := auth.NewJWTService(testSecret)
	r := gin.New()
	SetupRoutes(r, RouterDeps{
		Services: &services.Services{Generation: gen, Matches: matches},
		JWT:      jwtService,
		Metrics:  metrics.NewManager(metrics.WithPrometheusRegistry(prometheus.NewRegistry())),
		DB:       db,
	})
	return r, jwtService
}

func bearer(t *testing.T, svc *auth.JWTService, subject string, role models.UserRole) string {
	t.Helper()
	token, _, err := svc.GenerateToken(subject, "", string(role), time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func doRequest(r *gin.Engine, method, path, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGenerateMatches_Success(t *testing.T) {
	eventID := uuid.NewString()
	gen := &mockGeneration{stats: &services.GenerationStats{EventID: eventID, Profiles: 4, PairsEvaluated: 12, MatchesGenerated: 12}}
	r, jwtService := setupRouter(gen, &mockMatches{}, pinger{})

	w := doRequest(r, http.MethodPost, "/api/v1/events/"+eventID+"/generate-matches", bearer(t, jwtService, "svc", models.RoleServiceRole))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{eventID}, gen.eventIDs)

	var body struct {
		Success          bool                     `json:"success"`
		MatchesGenerated int                      `json:"matchesGenerated"`
		Stats            services.GenerationStats `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, 12, body.MatchesGenerated)
	assert.Equal(t, 4, body.Stats.Profiles)
}

func TestGenerateMatches_ErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"too few profiles", errors.InvalidInput(services.ErrNotEnoughProfiles, nil), http.StatusBadRequest, services.ErrNotEnoughProfiles},
		{"unknown event", errors.NotFound("event not found", nil), http.StatusNotFound, "event not found"},
		{"run in progress", errors.Conflict("match generation already running for this event", services.ErrLockHeld), http.StatusConflict, "match generation already running for this event"},
		{"fetch failure", errors.UpstreamFetch("failed to fetch event registrations", stderrors.New("timeout")), http.StatusInternalServerError, "failed to fetch event registrations"},
		{"insert failure", errors.Persistence("failed to persist matches", stderrors.New("deadlock")), http.StatusInternalServerError, "failed to persist matches"},
		{"untyped failure", stderrors.New("boom"), http.StatusInternalServerError, "An internal error occurred"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, jwtService := setupRouter(&mockGeneration{err: tt.err}, &mockMatches{}, pinger{})

			w := doRequest(r, http.MethodPost, "/api/v1/events/"+uuid.NewString()+"/generate-matches", bearer(t, jwtService, "admin-1", models.RoleAdmin))

			assert.Equal(t, tt.status, w.Code)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.message, body["error"])
			assert.NotContains(t, body, "success")
		})
	}
}

func TestGenerateMatches_RequiresPrivilegedRole(t *testing.T) {
	gen := &mockGeneration{stats: &services.GenerationStats{}}
	r, jwtService := setupRouter(gen, &mockMatches{}, pinger{})
	path := "/api/v1/events/" + uuid.NewString() + "/generate-matches"

	w := doRequest(r, http.MethodPost, path, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(r, http.MethodPost, path, bearer(t, jwtService, uuid.NewString(), models.RoleAuthenticated))
	assert.Equal(t, http.StatusForbidden, w.Code)

	assert.Empty(t, gen.eventIDs)
}

func TestListMyMatches(t *testing.T) {
	userID := uuid.NewString()
	matches := &mockMatches{matches: []models.Match{
		{ID: uuid.New(), UserID: userID, MatchedUserID: uuid.NewString(), MatchScore: 88},
	}}
	r, jwtService := setupRouter(&mockGeneration{}, matches, pinger{})

	w := doRequest(r, http.MethodGet, "/api/v1/matches?limit=10&offset=5", bearer(t, jwtService, userID, models.RoleAuthenticated))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, userID, matches.lastUserID)
	assert.Equal(t, models.MatchFilters{Limit: 10, Offset: 5}, matches.lastFilters)

	var body struct {
		Matches []models.Match `json:"matches"`
		Count   int            `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)
	assert.Equal(t, 88, body.Matches[0].MatchScore)
}

func TestListMyMatches_BadPaging(t *testing.T) {
	r, jwtService := setupRouter(&mockGeneration{}, &mockMatches{}, pinger{})

	w := doRequest(r, http.MethodGet, "/api/v1/matches?limit=abc", bearer(t, jwtService, uuid.NewString(), models.RoleAuthenticated))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListEventMatches_Privileged(t *testing.T) {
	matches := &mockMatches{matches: []models.Match{}}
	r, jwtService := setupRouter(&mockGeneration{}, matches, pinger{})
	path := "/api/v1/events/" + uuid.NewString() + "/matches"

	w := doRequest(r, http.MethodGet, path, bearer(t, jwtService, uuid.NewString(), models.RoleAuthenticated))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doRequest(r, http.MethodGet, path, bearer(t, jwtService, "svc", models.RoleServiceRole))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetEvent(t *testing.T) {
	eventID := uuid.New()
	completedAt := time.Date(2026, 5, 2, 18, 0, 0, 0, time.UTC)
	matches := &mockMatches{event: &models.Event{ID: eventID, Name: "Founders Night", MatchingCompleted: true, MatchingCompletedAt: &completedAt}}
	r, jwtService := setupRouter(&mockGeneration{}, matches, pinger{})

	w := doRequest(r, http.MethodGet, "/api/v1/events/"+eventID.String(), bearer(t, jwtService, uuid.NewString(), models.RoleAuthenticated))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Event models.Event `json:"event"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, eventID, body.Event.ID)
	assert.True(t, body.Event.MatchingCompleted)

	matches.err = errors.NotFound("event not found", nil)
	w = doRequest(r, http.MethodGet, "/api/v1/events/"+eventID.String(), bearer(t, jwtService, uuid.NewString(), models.RoleAuthenticated))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	r, _ := setupRouter(&mockGeneration{}, &mockMatches{}, pinger{})

	w := doRequest(r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"healthy":true`)

	w = doRequest(r, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)

	down, _ := setupRouter(&mockGeneration{}, &mockMatches{}, pinger{err: stderrors.New("connection refused")})
	w = doRequest(down, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
}
