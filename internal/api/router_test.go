package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thanakrit-dev/election-be/internal/auth"
	"github.com/thanakrit-dev/election-be/internal/database"
	"github.com/thanakrit-dev/election-be/internal/models"
	"github.com/thanakrit-dev/election-be/internal/services"
	"github.com/thanakrit-dev/election-be/internal/websocket"
)

type testServer struct {
	router *chi.Mux
	users  *services.UserService
	tokens *auth.TokenManager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))

	tokens := auth.NewTokenManager("test-access-secret", "test-refresh-secret", 15*time.Minute, 24*time.Hour)
	hub := websocket.NewHub()
	go hub.Run()

	events := services.NewEventService(db)
	users := services.NewUserService(db)
	settings := services.NewSettingService(db, events)
	authService := services.NewAuthService(users, tokens, nil, events)
	candidates := services.NewCandidateService(db, settings, events)
	votes := services.NewVoteService(db, settings, events, hub)

	router := NewRouter(Deps{
		Tokens:     tokens,
		Hub:        hub,
		Auth:       authService,
		Users:      users,
		Candidates: candidates,
		Votes:      votes,
		Settings:   settings,
		Events:     events,
		CORSOrigin: "http://localhost:3000",
	})

	return &testServer{router: router, users: users, tokens: tokens}
}

func (ts *testServer) do(t *testing.T, method, path, bearer string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v))
	return v
}

func (ts *testServer) createAdmin(t *testing.T) models.TokenPair {
	t.Helper()
	require.NoError(t, ts.users.EnsureAdmin(context.Background(), "admin@example.com", "adminpassword"))

	w := ts.do(t, http.MethodPost, "/api/v1/auth/signin", "", map[string]string{
		"email": "admin@example.com", "password": "adminpassword",
	})
	require.Equal(t, http.StatusOK, w.Code)
	return decode[models.TokenPair](t, w)
}

func TestSigninFlow(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
		"email": "voter@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = ts.do(t, http.MethodPost, "/api/v1/auth/signin", "", map[string]string{
		"email": "voter@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusOK, w.Code)
	pair := decode[models.TokenPair](t, w)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)

	w = ts.do(t, http.MethodPost, "/api/v1/auth/signin", "", map[string]string{
		"email": "voter@example.com", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "message")
}

func TestRefreshRotationOverHTTP(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
		"email": "voter@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	pair := decode[models.TokenPair](t, w)

	// Refresh with the refresh token as bearer.
	w = ts.do(t, http.MethodPost, "/api/v1/auth/refresh", pair.RefreshToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	rotated := decode[models.TokenPair](t, w)

	// Replaying the rotated-out token is 403.
	w = ts.do(t, http.MethodPost, "/api/v1/auth/refresh", pair.RefreshToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// An access token is not a refresh token.
	w = ts.do(t, http.MethodPost, "/api/v1/auth/refresh", rotated.AccessToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Logout, twice, both fine.
	w = ts.do(t, http.MethodPost, "/api/v1/auth/logout", rotated.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = ts.do(t, http.MethodPost, "/api/v1/auth/logout", rotated.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodPost, "/api/v1/auth/refresh", rotated.RefreshToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCandidateSignupAndVoteFlow(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/v1/candidates/signup", "", map[string]string{
		"email": "cand@example.com", "password": "password123",
		"displayName": "The Candidate", "slogan": "onward",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode[map[string]int](t, w)
	assert.Equal(t, 1, created["candidateNumber"])

	// Public candidate listing, sorted by number.
	w = ts.do(t, http.MethodGet, "/api/v1/candidates", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]models.Candidate](t, w)
	require.Len(t, list, 1)
	candidateAccountID := list[0].AccountID

	// Register a voter and cast a ballot.
	w = ts.do(t, http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
		"email": "voter@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	voter := decode[models.TokenPair](t, w)

	w = ts.do(t, http.MethodPost, "/api/v1/votes", voter.AccessToken, map[string]string{
		"candidateId": candidateAccountID,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	// Second ballot is rejected.
	w = ts.do(t, http.MethodPost, "/api/v1/votes", voter.AccessToken, map[string]string{
		"candidateId": candidateAccountID,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "already voted")

	// Vote status reflects the ballot.
	w = ts.do(t, http.MethodGet, "/api/v1/votes/me", voter.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	status := decode[map[string]bool](t, w)
	assert.True(t, status["hasVoted"])

	// Public summary shows one vote for the candidate.
	w = ts.do(t, http.MethodGet, "/api/v1/votes/summary", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	summary := decode[[]models.VoteSummaryEntry](t, w)
	require.Len(t, summary, 1)
	assert.Equal(t, candidateAccountID, summary[0].CandidateID)
	assert.Equal(t, 1, summary[0].Count)
	require.NotNil(t, summary[0].CandidateProfile)
	assert.Equal(t, 1, summary[0].CandidateProfile.CandidateNumber)

	// Voting without a token is unauthorized.
	w = ts.do(t, http.MethodPost, "/api/v1/votes", "", map[string]string{
		"candidateId": candidateAccountID,
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestVotingToggleGatesRegistration(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.createAdmin(t)

	// Non-admin cannot flip the toggle.
	w := ts.do(t, http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
		"email": "voter@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	voter := decode[models.TokenPair](t, w)

	w = ts.do(t, http.MethodPatch, "/api/v1/settings/voting", voter.AccessToken, map[string]bool{"votingEnabled": false})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Admin closes voting.
	w = ts.do(t, http.MethodPatch, "/api/v1/settings/voting", admin.AccessToken, map[string]bool{"votingEnabled": false})
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodGet, "/api/v1/settings/voting", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	toggle := decode[map[string]bool](t, w)
	assert.False(t, toggle["votingEnabled"])

	// Candidate signup is rejected while closed.
	payload := map[string]string{
		"email": "cand@example.com", "password": "password123",
		"displayName": "Late Candidate", "slogan": "too late",
	}
	w = ts.do(t, http.MethodPost, "/api/v1/candidates/signup", "", payload)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Reopen and the same payload succeeds as candidate 1.
	w = ts.do(t, http.MethodPatch, "/api/v1/settings/voting", admin.AccessToken, map[string]bool{"votingEnabled": true})
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodPost, "/api/v1/candidates/signup", "", payload)
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode[map[string]int](t, w)
	assert.Equal(t, 1, created["candidateNumber"])
}

func TestProfileUpdateIgnoresImmutableFields(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/v1/candidates/signup", "", map[string]string{
		"email": "cand@example.com", "password": "password123",
		"displayName": "Original", "slogan": "first slogan",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = ts.do(t, http.MethodPost, "/api/v1/auth/signin", "", map[string]string{
		"email": "cand@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusOK, w.Code)
	pair := decode[models.TokenPair](t, w)
	claims, err := ts.tokens.ParseAccess(pair.AccessToken)
	require.NoError(t, err)

	// A naive client echoes the whole profile back, immutable fields included.
	w = ts.do(t, http.MethodPatch, "/api/v1/candidates/user/"+claims.Subject, pair.AccessToken, map[string]interface{}{
		"displayName":     "Renamed",
		"candidateNumber": 99,
		"accountId":       "someone-else",
	})
	require.Equal(t, http.StatusOK, w.Code)
	updated := decode[models.Candidate](t, w)
	assert.Equal(t, "Renamed", updated.DisplayName)
	assert.Equal(t, 1, updated.CandidateNumber)
	assert.Equal(t, claims.Subject, updated.AccountID)

	// Another account cannot touch the profile.
	w = ts.do(t, http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
		"email": "other@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	other := decode[models.TokenPair](t, w)

	w = ts.do(t, http.MethodPatch, "/api/v1/candidates/user/"+claims.Subject, other.AccessToken, map[string]string{
		"displayName": "Hijacked",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUserAdminEndpoints(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.createAdmin(t)

	w := ts.do(t, http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
		"email": "voter@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	voter := decode[models.TokenPair](t, w)

	// Non-admin listing of all users is denied, candidate filter is open.
	w = ts.do(t, http.MethodGet, "/api/v1/users", voter.AccessToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = ts.do(t, http.MethodGet, "/api/v1/users?role=candidate", voter.AccessToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// Admin sees everyone.
	w = ts.do(t, http.MethodGet, "/api/v1/users", admin.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	accounts := decode[[]models.Account](t, w)
	assert.Len(t, accounts, 2)

	// Audit trail is admin only.
	w = ts.do(t, http.MethodGet, "/api/v1/events", voter.AccessToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = ts.do(t, http.MethodGet, "/api/v1/events", admin.AccessToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
