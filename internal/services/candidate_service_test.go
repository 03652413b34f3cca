package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thanakrit-dev/election-be/internal/apperr"
	"github.com/thanakrit-dev/election-be/internal/models"
)

func testApplication(name string) models.CandidateApplication {
	return models.CandidateApplication{
		DisplayName: name,
		Slogan:      "a better tomorrow",
		Description: "about " + name,
		ImageRef:    "/uploads/" + name + ".png",
	}
}

func TestSignupAndApplyAssignsSequentialNumbers(t *testing.T) {
	env := newTestDB(t)
	ctx := context.Background()

	first, err := env.candidates.SignupAndApply(ctx, "one@example.com", "password123", testApplication("One"))
	require.NoError(t, err)
	assert.Equal(t, 1, first)

	second, err := env.candidates.SignupAndApply(ctx, "two@example.com", "password123", testApplication("Two"))
	require.NoError(t, err)
	assert.Equal(t, 2, second)

	all, err := env.candidates.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, 1, all[0].CandidateNumber)
	assert.Equal(t, 2, all[1].CandidateNumber)
	assert.Equal(t, "one@example.com", all[0].Email)
}

func TestSignupRejectedWhenRegistrationClosed(t *testing.T) {
	env := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, env.settings.SetVotingEnabled(ctx, false))

	_, err := env.candidates.SignupAndApply(ctx, "late@example.com", "password123", testApplication("Late"))
	assert.ErrorIs(t, err, apperr.ErrRegistrationClosed)

	// Nothing was persisted.
	all, err := env.candidates.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
	_, err = env.users.GetAccountByEmailWithSecrets(ctx, "late@example.com")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	// Re-enabling and repeating the same payload succeeds as candidate 1.
	require.NoError(t, env.settings.SetVotingEnabled(ctx, true))
	number, err := env.candidates.SignupAndApply(ctx, "late@example.com", "password123", testApplication("Late"))
	require.NoError(t, err)
	assert.Equal(t, 1, number)
}

func TestSignupDuplicateEmailRollsBackNumbering(t *testing.T) {
	env := newTestDB(t)
	ctx := context.Background()

	_, err := env.candidates.SignupAndApply(ctx, "taken@example.com", "password123", testApplication("First"))
	require.NoError(t, err)

	// Case/whitespace variants collide with the stored normalized email.
	_, err = env.candidates.SignupAndApply(ctx, " Taken@Example.com ", "password123", testApplication("Second"))
	assert.ErrorIs(t, err, apperr.ErrEmailTaken)

	// The failed registration must not leak a number.
	number, err := env.candidates.SignupAndApply(ctx, "next@example.com", "password123", testApplication("Next"))
	require.NoError(t, err)
	assert.Equal(t, 2, number)
}

func TestConcurrentSignupsGetDistinctDenseNumbers(t *testing.T) {
	env := newTestDB(t)

	const n = 10
	numbers := make([]int, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			numbers[i], errs[i] = env.candidates.SignupAndApply(context.Background(),
				fmt.Sprintf("runner%d@example.com", i), "password123",
				testApplication(fmt.Sprintf("Runner %d", i)))
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
	}

	sort.Ints(numbers)
	for i := 0; i < n; i++ {
		assert.Equal(t, i+1, numbers[i], "numbers must be exactly 1..N with no duplicates or gaps")
	}
}

func TestApplyWithExistingAccount(t *testing.T) {
	env := newTestDB(t)
	ctx := context.Background()

	account := env.createAccount(t, "member@example.com", "password123", models.RoleUser)

	candidate, err := env.candidates.Apply(ctx, account.ID, testApplication("Member"))
	require.NoError(t, err)
	assert.Equal(t, 1, candidate.CandidateNumber)
	assert.Equal(t, account.ID, candidate.AccountID)

	// The account was promoted.
	updated, err := env.users.GetAccountByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleCandidate, updated.Role)

	// One candidacy per account.
	_, err = env.candidates.Apply(ctx, account.ID, testApplication("Member"))
	assert.ErrorIs(t, err, apperr.ErrAlreadyCandidate)
}

func TestApplyUnknownAccount(t *testing.T) {
	env := newTestDB(t)

	_, err := env.candidates.Apply(context.Background(), "no-such-id", testApplication("Ghost"))
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUpdateOnlyTouchesDisplayFields(t *testing.T) {
	env := newTestDB(t)
	ctx := context.Background()

	_, err := env.candidates.SignupAndApply(ctx, "cand@example.com", "password123", testApplication("Original"))
	require.NoError(t, err)
	account, err := env.users.GetAccountByEmailWithSecrets(ctx, "cand@example.com")
	require.NoError(t, err)

	newName := "Renamed"
	updated, err := env.candidates.UpdateByAccountID(ctx, account.ID, models.CandidateUpdate{DisplayName: &newName})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.DisplayName)
	// Untouched fields keep their stored values.
	assert.Equal(t, "a better tomorrow", updated.Slogan)
	assert.Equal(t, 1, updated.CandidateNumber)
	assert.Equal(t, account.ID, updated.AccountID)
}

func TestDeleteByAccountIDRemovesAccount(t *testing.T) {
	env := newTestDB(t)
	ctx := context.Background()

	_, err := env.candidates.SignupAndApply(ctx, "gone@example.com", "password123", testApplication("Gone"))
	require.NoError(t, err)
	account, err := env.users.GetAccountByEmailWithSecrets(ctx, "gone@example.com")
	require.NoError(t, err)

	require.NoError(t, env.candidates.DeleteByAccountID(ctx, account.ID))

	_, err = env.candidates.GetByAccountID(ctx, account.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = env.users.GetAccountByID(ctx, account.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	// Numbers are never reused after deletion.
	number, err := env.candidates.SignupAndApply(ctx, "fresh@example.com", "password123", testApplication("Fresh"))
	require.NoError(t, err)
	assert.Equal(t, 2, number)
}
