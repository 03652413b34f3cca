package services

import (
	"context"
	"database/sql"
	"fmt"
)

const votingEnabledKey = "votingEnabled"

// SettingServiceProvider defines the interface for the operational gate.
type SettingServiceProvider interface {
	GetVotingEnabled(ctx context.Context) (bool, error)
	SetVotingEnabled(ctx context.Context, enabled bool) error
}

// SettingService owns the single global voting toggle. Every read goes to
// storage so multiple instances stay consistent; there is no process-wide
// cached flag. The row is seeded to true by the migration.
type SettingService struct {
	db     *sql.DB
	events EventServiceProvider
}

// NewSettingService creates a new SettingService.
func NewSettingService(db *sql.DB, events EventServiceProvider) *SettingService {
	return &SettingService{db: db, events: events}
}

// GetVotingEnabled reports whether registration and voting are open.
func (s *SettingService) GetVotingEnabled(ctx context.Context) (bool, error) {
	var value int
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM settings WHERE key = ?", votingEnabledKey).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("reading voting toggle: %w", err)
	}
	return value != 0, nil
}

// SetVotingEnabled flips the toggle. Admin-only, enforced at the router.
func (s *SettingService) SetVotingEnabled(ctx context.Context, enabled bool) error {
	value := 0
	if enabled {
		value = 1
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		votingEnabledKey, value)
	if err != nil {
		return fmt.Errorf("writing voting toggle: %w", err)
	}

	state := "disabled"
	if enabled {
		state = "enabled"
	}
	s.events.CreateEvent(ctx, "settings.voting", "info", "voting "+state, nil)
	return nil
}
