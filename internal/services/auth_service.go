package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/thanakrit-dev/election-be/internal/apperr"
	"github.com/thanakrit-dev/election-be/internal/auth"
	"github.com/thanakrit-dev/election-be/internal/captcha"
	"github.com/thanakrit-dev/election-be/internal/models"
)

// AuthServiceProvider defines the interface for session management.
type AuthServiceProvider interface {
	SignUp(ctx context.Context, email, password string) (models.TokenPair, error)
	SignIn(ctx context.Context, email, password, captchaToken string) (models.TokenPair, error)
	Refresh(ctx context.Context, accountID, refreshToken string) (models.TokenPair, error)
	Logout(ctx context.Context, accountID string) error
}

// AuthService mints, verifies, and rotates token pairs. Sessions live only
// as the refresh token hash on the account row, so any instance can serve
// refresh and logout.
type AuthService struct {
	users    UserServiceProvider
	tokens   *auth.TokenManager
	verifier captcha.Verifier
	events   EventServiceProvider
}

// NewAuthService creates a new AuthService.
func NewAuthService(users UserServiceProvider, tokens *auth.TokenManager, verifier captcha.Verifier, events EventServiceProvider) *AuthService {
	return &AuthService{users: users, tokens: tokens, verifier: verifier, events: events}
}

// SignUp registers a plain voter account and opens a session for it.
func (s *AuthService) SignUp(ctx context.Context, email, password string) (models.TokenPair, error) {
	if err := validateCredentials(email, password); err != nil {
		return models.TokenPair{}, err
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("hashing password: %w", err)
	}

	account, err := s.users.CreateAccount(ctx, email, passwordHash, models.RoleUser)
	if err != nil {
		return models.TokenPair{}, err
	}

	s.events.CreateEvent(ctx, "auth.signup", "info", "account registered", &account.ID)
	return s.openSession(ctx, account)
}

// SignIn verifies credentials and opens a session. A supplied captcha token
// is verified first; the stored refresh hash is overwritten, so the last
// login wins and any previous session goes stale.
func (s *AuthService) SignIn(ctx context.Context, email, password, captchaToken string) (models.TokenPair, error) {
	if captchaToken != "" && s.verifier != nil {
		if err := s.verifier.Verify(ctx, captchaToken); err != nil {
			return models.TokenPair{}, err
		}
	}

	account, err := s.users.GetAccountByEmailWithSecrets(ctx, email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			// Same error as a wrong password; do not reveal which factor failed.
			return models.TokenPair{}, apperr.ErrInvalidCredentials
		}
		return models.TokenPair{}, err
	}

	if !auth.VerifyPassword(account.PasswordHash, password) {
		log.Warn().Str("account_id", account.ID).Msg("Failed sign-in attempt")
		return models.TokenPair{}, apperr.ErrInvalidCredentials
	}

	s.events.CreateEvent(ctx, "auth.signin", "info", "account signed in", &account.ID)
	return s.openSession(ctx, account)
}

// Refresh rotates the session: the presented refresh token must match the
// stored hash, and the swap to the new hash is a compare-and-swap so that of
// two racing refreshes at most one wins. The loser, and any replay of a
// rotated-out token, gets a generic access-denied.
func (s *AuthService) Refresh(ctx context.Context, accountID, refreshToken string) (models.TokenPair, error) {
	account, err := s.users.GetAccountByIDWithSecrets(ctx, accountID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return models.TokenPair{}, apperr.ErrAccessDenied
		}
		return models.TokenPair{}, err
	}

	if !auth.VerifyRefreshHash(account.RefreshTokenHash, refreshToken) {
		return models.TokenPair{}, apperr.ErrAccessDenied
	}

	pair, err := s.tokens.MintPair(account)
	if err != nil {
		return models.TokenPair{}, err
	}

	swapped, err := s.users.RotateRefreshTokenHash(ctx, account.ID,
		account.RefreshTokenHash, auth.HashRefreshToken(pair.RefreshToken))
	if err != nil {
		return models.TokenPair{}, err
	}
	if !swapped {
		return models.TokenPair{}, apperr.ErrAccessDenied
	}
	return pair, nil
}

// Logout clears the stored refresh hash, terminating the session. Calling it
// with no live session is not an error.
func (s *AuthService) Logout(ctx context.Context, accountID string) error {
	return s.users.SetRefreshTokenHash(ctx, accountID, "")
}

// openSession mints a pair and persists the hash of the new refresh token.
// The raw refresh token is never stored.
func (s *AuthService) openSession(ctx context.Context, account models.Account) (models.TokenPair, error) {
	pair, err := s.tokens.MintPair(account)
	if err != nil {
		return models.TokenPair{}, err
	}
	if err := s.users.SetRefreshTokenHash(ctx, account.ID, auth.HashRefreshToken(pair.RefreshToken)); err != nil {
		return models.TokenPair{}, fmt.Errorf("storing refresh token hash: %w", err)
	}
	return pair, nil
}

func validateCredentials(email, password string) error {
	if email == "" || len(password) < 8 {
		return fmt.Errorf("%w: email is required and password must be at least 8 characters", apperr.ErrValidation)
	}
	return nil
}
