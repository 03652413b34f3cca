package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/thanakrit-dev/election-be/internal/apperr"
	"github.com/thanakrit-dev/election-be/internal/auth"
	"github.com/thanakrit-dev/election-be/internal/models"
)

// UserServiceProvider defines the interface for account services.
type UserServiceProvider interface {
	CreateAccount(ctx context.Context, email, passwordHash string, role models.Role) (models.Account, error)
	GetAccountByID(ctx context.Context, id string) (models.Account, error)
	GetAccountByIDWithSecrets(ctx context.Context, id string) (models.Account, error)
	GetAccountByEmailWithSecrets(ctx context.Context, email string) (models.Account, error)
	GetAllAccounts(ctx context.Context, role models.Role) ([]models.Account, error)
	UpdateAccount(ctx context.Context, id, email string, role models.Role) (models.Account, error)
	DeleteAccount(ctx context.Context, id string) error
	SetRefreshTokenHash(ctx context.Context, id, hash string) error
	RotateRefreshTokenHash(ctx context.Context, id, oldHash, newHash string) (bool, error)
}

// UserService owns account rows: password hashes, roles, and the per-account
// refresh token hash.
type UserService struct {
	db *sql.DB
}

// NewUserService creates a new UserService.
func NewUserService(db *sql.DB) *UserService {
	return &UserService{db: db}
}

// NormalizeEmail lowercases and trims an email so that variants differing
// only in case or surrounding whitespace collide.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateAccount inserts a new account. The email is stored normalized; a
// duplicate maps to ErrEmailTaken.
func (s *UserService) CreateAccount(ctx context.Context, email, passwordHash string, role models.Role) (models.Account, error) {
	account := models.Account{
		ID:           uuid.New().String(),
		Email:        NormalizeEmail(email),
		PasswordHash: passwordHash,
		Role:         role,
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO accounts (id, email, password_hash, role) VALUES (?, ?, ?, ?)",
		account.ID, account.Email, account.PasswordHash, account.Role)
	if err != nil {
		if isUniqueViolation(err, "accounts.email") {
			return models.Account{}, apperr.ErrEmailTaken
		}
		return models.Account{}, fmt.Errorf("inserting account: %w", err)
	}

	account.PasswordHash = ""
	return account, nil
}

// GetAccountByID retrieves an account without secret columns.
func (s *UserService) GetAccountByID(ctx context.Context, id string) (models.Account, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, email, role, created_at FROM accounts WHERE id = ?", id)

	var account models.Account
	err := row.Scan(&account.ID, &account.Email, &account.Role, &account.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.Account{}, apperr.ErrNotFound
		}
		return models.Account{}, fmt.Errorf("querying account: %w", err)
	}
	return account, nil
}

// GetAccountByIDWithSecrets retrieves an account including the refresh token
// hash. Used by the refresh and logout flows.
func (s *UserService) GetAccountByIDWithSecrets(ctx context.Context, id string) (models.Account, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, email, password_hash, role, COALESCE(refresh_token_hash, ''), created_at FROM accounts WHERE id = ?", id)
	return scanAccountWithSecrets(row)
}

// GetAccountByEmailWithSecrets retrieves an account by normalized email,
// including the password hash. Used by the sign-in flow.
func (s *UserService) GetAccountByEmailWithSecrets(ctx context.Context, email string) (models.Account, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, email, password_hash, role, COALESCE(refresh_token_hash, ''), created_at FROM accounts WHERE email = ?",
		NormalizeEmail(email))
	return scanAccountWithSecrets(row)
}

func scanAccountWithSecrets(row *sql.Row) (models.Account, error) {
	var account models.Account
	err := row.Scan(&account.ID, &account.Email, &account.PasswordHash, &account.Role, &account.RefreshTokenHash, &account.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.Account{}, apperr.ErrNotFound
		}
		return models.Account{}, fmt.Errorf("querying account: %w", err)
	}
	return account, nil
}

// GetAllAccounts lists accounts, optionally filtered by role.
func (s *UserService) GetAllAccounts(ctx context.Context, role models.Role) ([]models.Account, error) {
	query := "SELECT id, email, role, created_at FROM accounts"
	args := []any{}
	if role != "" {
		query += " WHERE role = ?"
		args = append(args, role)
	}
	query += " ORDER BY created_at"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying accounts: %w", err)
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		var account models.Account
		if err := rows.Scan(&account.ID, &account.Email, &account.Role, &account.CreatedAt); err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

// UpdateAccount updates an account's email and role. Admin surface only.
func (s *UserService) UpdateAccount(ctx context.Context, id, email string, role models.Role) (models.Account, error) {
	if !role.Valid() {
		return models.Account{}, fmt.Errorf("%w: unknown role %q", apperr.ErrValidation, role)
	}

	res, err := s.db.ExecContext(ctx,
		"UPDATE accounts SET email = ?, role = ? WHERE id = ?",
		NormalizeEmail(email), role, id)
	if err != nil {
		if isUniqueViolation(err, "accounts.email") {
			return models.Account{}, apperr.ErrEmailTaken
		}
		return models.Account{}, fmt.Errorf("updating account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.Account{}, apperr.ErrNotFound
	}
	return s.GetAccountByID(ctx, id)
}

// DeleteAccount removes an account.
func (s *UserService) DeleteAccount(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM accounts WHERE id = ?", id)
	return err
}

// SetRefreshTokenHash stores the hash of the live refresh token, or clears it
// when hash is empty. Always a point update.
func (s *UserService) SetRefreshTokenHash(ctx context.Context, id, hash string) error {
	var value any
	if hash != "" {
		value = hash
	}
	_, err := s.db.ExecContext(ctx, "UPDATE accounts SET refresh_token_hash = ? WHERE id = ?", value, id)
	return err
}

// RotateRefreshTokenHash swaps the stored hash only if it still equals
// oldHash. Returning false means a concurrent rotation or logout won; the
// caller must treat its session as stale. This compare-and-swap keeps
// rotation linearizable per account without a read-modify-write in
// application code.
func (s *UserService) RotateRefreshTokenHash(ctx context.Context, id, oldHash, newHash string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE accounts SET refresh_token_hash = ? WHERE id = ? AND refresh_token_hash = ?",
		newHash, id, oldHash)
	if err != nil {
		return false, fmt.Errorf("rotating refresh token hash: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// EnsureAdmin creates the bootstrap admin account if it does not exist.
func (s *UserService) EnsureAdmin(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return nil
	}

	_, err := s.GetAccountByEmailWithSecrets(ctx, email)
	if err == nil {
		return nil
	}
	if err != apperr.ErrNotFound {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	_, err = s.CreateAccount(ctx, email, hash, models.RoleAdmin)
	return err
}
