package services

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/thanakrit-dev/election-be/internal/models"
)

// EventServiceProvider defines the interface for audit event services.
type EventServiceProvider interface {
	CreateEvent(ctx context.Context, eventType, level, message string, accountID *string)
	GetRecentEvents(ctx context.Context, limit int) ([]models.Event, error)
}

// EventService keeps an append-only audit trail of notable actions.
type EventService struct {
	db *sql.DB
}

// NewEventService creates a new EventService.
func NewEventService(db *sql.DB) *EventService {
	return &EventService{db: db}
}

// CreateEvent logs a new event. Auditing is best-effort: a failure is logged
// but never fails the action being audited.
func (s *EventService) CreateEvent(ctx context.Context, eventType, level, message string, accountID *string) {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO events (id, type, level, message, account_id) VALUES (?, ?, ?, ?, ?)",
		uuid.New().String(), eventType, level, message, accountID)
	if err != nil {
		log.Error().Err(err).Str("event_type", eventType).Msg("Failed to record audit event")
	}
}

// GetRecentEvents retrieves the most recent events.
func (s *EventService) GetRecentEvents(ctx context.Context, limit int) ([]models.Event, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, type, level, message, account_id, created_at FROM events ORDER BY created_at DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var event models.Event
		if err := rows.Scan(&event.ID, &event.Type, &event.Level, &event.Message, &event.AccountID, &event.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
