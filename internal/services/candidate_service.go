package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/thanakrit-dev/election-be/internal/apperr"
	"github.com/thanakrit-dev/election-be/internal/auth"
	"github.com/thanakrit-dev/election-be/internal/models"
)

// CandidateServiceProvider defines the interface for candidacy management.
type CandidateServiceProvider interface {
	SignupAndApply(ctx context.Context, email, password string, application models.CandidateApplication) (int, error)
	Apply(ctx context.Context, accountID string, application models.CandidateApplication) (models.Candidate, error)
	UpdateByAccountID(ctx context.Context, accountID string, update models.CandidateUpdate) (models.Candidate, error)
	GetByAccountID(ctx context.Context, accountID string) (models.Candidate, error)
	GetAll(ctx context.Context) ([]models.Candidate, error)
	DeleteByAccountID(ctx context.Context, accountID string) error
}

// CandidateService manages candidacy profiles and candidate-number
// allocation. Numbers come from the counters row bumped atomically inside
// the registration transaction, so two concurrent registrations can never
// observe the same value and a rolled-back registration leaves no gap.
type CandidateService struct {
	db       *sql.DB
	settings SettingServiceProvider
	events   EventServiceProvider
}

// NewCandidateService creates a new CandidateService.
func NewCandidateService(db *sql.DB, settings SettingServiceProvider, events EventServiceProvider) *CandidateService {
	return &CandidateService{db: db, settings: settings, events: events}
}

// SignupAndApply creates an account and its candidacy in one transaction and
// returns the allocated candidate number. Registration must be open and the
// email unused; on any failure nothing is persisted.
func (s *CandidateService) SignupAndApply(ctx context.Context, email, password string, application models.CandidateApplication) (int, error) {
	if err := s.requireOpenRegistration(ctx); err != nil {
		return 0, err
	}
	if err := validateCredentials(email, password); err != nil {
		return 0, err
	}
	if err := validateApplication(application); err != nil {
		return 0, err
	}

	// Hashing is deliberately slow; keep it outside the transaction.
	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return 0, fmt.Errorf("hashing password: %w", err)
	}

	accountID := uuid.New().String()
	var number int

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		n, err := nextCandidateNumber(ctx, tx)
		if err != nil {
			return err
		}
		number = n

		_, err = tx.ExecContext(ctx,
			"INSERT INTO accounts (id, email, password_hash, role) VALUES (?, ?, ?, ?)",
			accountID, NormalizeEmail(email), passwordHash, models.RoleCandidate)
		if err != nil {
			if isUniqueViolation(err, "accounts.email") {
				return apperr.ErrEmailTaken
			}
			return fmt.Errorf("inserting account: %w", err)
		}

		return insertCandidate(ctx, tx, accountID, number, application)
	})
	if err != nil {
		return 0, err
	}

	s.events.CreateEvent(ctx, "candidate.signup", "info",
		fmt.Sprintf("candidate number %d registered", number), &accountID)
	return number, nil
}

// Apply creates a candidacy for an existing account and promotes its role to
// candidate. One candidacy per account; the profile's UNIQUE account_id index
// backs the application-level check.
func (s *CandidateService) Apply(ctx context.Context, accountID string, application models.CandidateApplication) (models.Candidate, error) {
	if err := s.requireOpenRegistration(ctx); err != nil {
		return models.Candidate{}, err
	}
	if err := validateApplication(application); err != nil {
		return models.Candidate{}, err
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var role models.Role
		err := tx.QueryRowContext(ctx, "SELECT role FROM accounts WHERE id = ?", accountID).Scan(&role)
		if err != nil {
			if err == sql.ErrNoRows {
				return apperr.ErrNotFound
			}
			return fmt.Errorf("querying account: %w", err)
		}

		number, err := nextCandidateNumber(ctx, tx)
		if err != nil {
			return err
		}

		if err := insertCandidate(ctx, tx, accountID, number, application); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, "UPDATE accounts SET role = ? WHERE id = ?", models.RoleCandidate, accountID)
		if err != nil {
			return fmt.Errorf("promoting account role: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.Candidate{}, err
	}

	s.events.CreateEvent(ctx, "candidate.apply", "info", "existing account applied as candidate", &accountID)
	return s.GetByAccountID(ctx, accountID)
}

// UpdateByAccountID updates the display fields of a profile. CandidateNumber
// and accountId are not part of CandidateUpdate, so echoed-back values are
// dropped before they reach this method.
func (s *CandidateService) UpdateByAccountID(ctx context.Context, accountID string, update models.CandidateUpdate) (models.Candidate, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE candidates SET
			display_name = COALESCE(?, display_name),
			slogan       = COALESCE(?, slogan),
			description  = COALESCE(?, description),
			image_ref    = COALESCE(?, image_ref)
		WHERE account_id = ?`,
		update.DisplayName, update.Slogan, update.Description, update.ImageRef, accountID)
	if err != nil {
		return models.Candidate{}, fmt.Errorf("updating candidate: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.Candidate{}, apperr.ErrNotFound
	}
	return s.GetByAccountID(ctx, accountID)
}

// GetByAccountID retrieves the candidacy backed by the given account.
func (s *CandidateService) GetByAccountID(ctx context.Context, accountID string) (models.Candidate, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT c.id, c.account_id, c.candidate_number, c.display_name, c.slogan,
		       c.description, c.image_ref, c.applied_at, a.email
		FROM candidates c
		JOIN accounts a ON a.id = c.account_id
		WHERE c.account_id = ?`, accountID)

	candidate, err := scanCandidate(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Candidate{}, apperr.ErrNotFound
		}
		return models.Candidate{}, err
	}
	return candidate, nil
}

// GetAll lists every candidacy ordered by candidate number.
func (s *CandidateService) GetAll(ctx context.Context) ([]models.Candidate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.account_id, c.candidate_number, c.display_name, c.slogan,
		       c.description, c.image_ref, c.applied_at, a.email
		FROM candidates c
		JOIN accounts a ON a.id = c.account_id
		ORDER BY c.candidate_number`)
	if err != nil {
		return nil, fmt.Errorf("querying candidates: %w", err)
	}
	defer rows.Close()

	var candidates []models.Candidate
	for rows.Next() {
		candidate, err := scanCandidate(rows)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, candidate)
	}
	return candidates, rows.Err()
}

// DeleteByAccountID removes a candidacy together with its backing account.
// Administrative action; the candidate number is never reused. Vote rows
// referencing the account are left in place, the ledger is append-only.
func (s *CandidateService) DeleteByAccountID(ctx context.Context, accountID string) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "DELETE FROM candidates WHERE account_id = ?", accountID)
		if err != nil {
			return fmt.Errorf("deleting candidate: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return apperr.ErrNotFound
		}
		_, err = tx.ExecContext(ctx, "DELETE FROM accounts WHERE id = ?", accountID)
		if err != nil {
			return fmt.Errorf("deleting account: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.events.CreateEvent(ctx, "candidate.delete", "warning", "candidacy removed by admin", &accountID)
	return nil
}

func (s *CandidateService) requireOpenRegistration(ctx context.Context) error {
	enabled, err := s.settings.GetVotingEnabled(ctx)
	if err != nil {
		return err
	}
	if !enabled {
		return apperr.ErrRegistrationClosed
	}
	return nil
}

func (s *CandidateService) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// nextCandidateNumber bumps the candidate-number counter and returns the new
// value. Running inside the registration transaction makes the allocation
// atomic with the inserts: a rollback also rolls the counter back.
func nextCandidateNumber(ctx context.Context, tx *sql.Tx) (int, error) {
	var number int
	err := tx.QueryRowContext(ctx,
		"UPDATE counters SET value = value + 1 WHERE name = 'candidate_number' RETURNING value").Scan(&number)
	if err != nil {
		return 0, fmt.Errorf("allocating candidate number: %w", err)
	}
	return number, nil
}

func insertCandidate(ctx context.Context, tx *sql.Tx, accountID string, number int, application models.CandidateApplication) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO candidates (id, account_id, candidate_number, display_name, slogan, description, image_ref)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), accountID, number,
		application.DisplayName, application.Slogan, application.Description, application.ImageRef)
	if err != nil {
		if isUniqueViolation(err, "candidates.account_id") {
			return apperr.ErrAlreadyCandidate
		}
		if isUniqueViolation(err, "candidates.candidate_number") {
			// The counter makes this unreachable; if it ever fires the
			// allocation invariant is broken and the registration must fail.
			log.Error().Int("candidate_number", number).Msg("Duplicate candidate number allocated")
			return apperr.ErrAlreadyCandidate
		}
		return fmt.Errorf("inserting candidate: %w", err)
	}
	return nil
}

type candidateScanner interface {
	Scan(dest ...any) error
}

func scanCandidate(row candidateScanner) (models.Candidate, error) {
	var c models.Candidate
	err := row.Scan(&c.ID, &c.AccountID, &c.CandidateNumber, &c.DisplayName,
		&c.Slogan, &c.Description, &c.ImageRef, &c.AppliedAt, &c.Email)
	return c, err
}

func validateApplication(application models.CandidateApplication) error {
	if application.DisplayName == "" || application.Slogan == "" {
		return fmt.Errorf("%w: displayName and slogan are required", apperr.ErrValidation)
	}
	return nil
}
