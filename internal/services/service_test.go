package services

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/thanakrit-dev/election-be/internal/auth"
	"github.com/thanakrit-dev/election-be/internal/database"
	"github.com/thanakrit-dev/election-be/internal/models"
)

// newTestDB creates a fresh file-backed database per test so concurrent
// connections see the same data.
func newTestDB(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))

	events := NewEventService(db)
	users := NewUserService(db)
	settings := NewSettingService(db, events)
	tokens := auth.NewTokenManager("test-access-secret", "test-refresh-secret", 15*time.Minute, 24*time.Hour)

	return &testEnv{
		db:         db,
		events:     events,
		users:      users,
		settings:   settings,
		tokens:     tokens,
		auth:       NewAuthService(users, tokens, nil, events),
		candidates: NewCandidateService(db, settings, events),
		votes:      NewVoteService(db, settings, events, nil),
	}
}

type testEnv struct {
	db         *sql.DB
	events     *EventService
	users      *UserService
	settings   *SettingService
	tokens     *auth.TokenManager
	auth       *AuthService
	candidates *CandidateService
	votes      *VoteService
}

// createAccount registers an account with the given role directly through
// the credential store.
func (e *testEnv) createAccount(t *testing.T, email, password string, role models.Role) models.Account {
	t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	account, err := e.users.CreateAccount(context.Background(), email, hash, role)
	require.NoError(t, err)
	return account
}
