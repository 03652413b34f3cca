package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/thanakrit-dev/election-be/internal/apperr"
	"github.com/thanakrit-dev/election-be/internal/models"
	ws "github.com/thanakrit-dev/election-be/internal/websocket"
)

// VoteServiceProvider defines the interface for the ballot ledger.
type VoteServiceProvider interface {
	Cast(ctx context.Context, voterAccountID, candidateAccountID string) (models.VoteReceipt, error)
	GetSummary(ctx context.Context) ([]models.VoteSummaryEntry, error)
	HasVoted(ctx context.Context, accountID string) (bool, error)
	RecordSnapshot(ctx context.Context) (models.VoteSnapshot, error)
}

// VoteService is the ballot ledger: an append-only votes table whose UNIQUE
// index on voter_account_id enforces one vote per voter at the storage
// layer. The application-level pre-checks exist only for error quality; the
// index is the gate that wins races.
type VoteService struct {
	db       *sql.DB
	settings SettingServiceProvider
	events   EventServiceProvider
	hub      *ws.Hub
}

// NewVoteService creates a new VoteService. hub may be nil when no live feed
// is wired (tests).
func NewVoteService(db *sql.DB, settings SettingServiceProvider, events EventServiceProvider, hub *ws.Hub) *VoteService {
	return &VoteService{db: db, settings: settings, events: events, hub: hub}
}

// Cast records a ballot. The target must be an existing account whose role
// is exactly candidate; the voter must not have voted. Of two concurrent
// casts by the same voter exactly one insert survives the UNIQUE gate, the
// other maps to "already voted" with no retry, losing that race is final.
func (s *VoteService) Cast(ctx context.Context, voterAccountID, candidateAccountID string) (models.VoteReceipt, error) {
	enabled, err := s.settings.GetVotingEnabled(ctx)
	if err != nil {
		return models.VoteReceipt{}, err
	}
	if !enabled {
		return models.VoteReceipt{}, apperr.ErrVotingClosed
	}

	var role models.Role
	err = s.db.QueryRowContext(ctx,
		"SELECT role FROM accounts WHERE id = ?", candidateAccountID).Scan(&role)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.VoteReceipt{}, apperr.ErrInvalidCandidate
		}
		return models.VoteReceipt{}, fmt.Errorf("querying candidate account: %w", err)
	}
	if role != models.RoleCandidate {
		return models.VoteReceipt{}, apperr.ErrInvalidCandidate
	}

	castAt := time.Now().UTC()
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO votes (id, voter_account_id, candidate_account_id, cast_at) VALUES (?, ?, ?, ?)",
		uuid.New().String(), voterAccountID, candidateAccountID, castAt)
	if err != nil {
		if isUniqueViolation(err, "votes.voter_account_id") {
			return models.VoteReceipt{}, apperr.ErrAlreadyVoted
		}
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			// The write may or may not have landed; tell the caller to check
			// rather than reporting a definite outcome.
			return models.VoteReceipt{}, apperr.ErrAmbiguous
		}
		return models.VoteReceipt{}, fmt.Errorf("inserting vote: %w", err)
	}

	// The ballot stays anonymous in the audit trail: the event references the
	// voter only, never the chosen candidate.
	s.events.CreateEvent(ctx, "vote.cast", "info", "ballot recorded", &voterAccountID)
	s.broadcastSummary()

	return models.VoteReceipt{Message: "vote recorded", CastAt: castAt}, nil
}

// GetSummary aggregates votes per candidate and joins display metadata.
// Read-only and safe to poll.
func (s *VoteService) GetSummary(ctx context.Context) ([]models.VoteSummaryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT v.candidate_account_id, COUNT(*) AS votes,
		       c.id, c.account_id, c.candidate_number, c.display_name, c.slogan,
		       c.description, c.image_ref, c.applied_at
		FROM votes v
		LEFT JOIN candidates c ON c.account_id = v.candidate_account_id
		GROUP BY v.candidate_account_id`)
	if err != nil {
		return nil, fmt.Errorf("querying vote summary: %w", err)
	}
	defer rows.Close()

	var summary []models.VoteSummaryEntry
	for rows.Next() {
		var entry models.VoteSummaryEntry
		var c models.Candidate
		var id, accountID, displayName, slogan, description, imageRef sql.NullString
		var number sql.NullInt64
		var appliedAt sql.NullTime

		if err := rows.Scan(&entry.CandidateID, &entry.Count,
			&id, &accountID, &number, &displayName, &slogan, &description, &imageRef, &appliedAt); err != nil {
			return nil, err
		}
		// The profile can be missing when an admin removed the candidacy
		// after votes were cast; the count still reports.
		if id.Valid {
			c.ID = id.String
			c.AccountID = accountID.String
			c.CandidateNumber = int(number.Int64)
			c.DisplayName = displayName.String
			c.Slogan = slogan.String
			c.Description = description.String
			c.ImageRef = imageRef.String
			c.AppliedAt = appliedAt.Time
			entry.CandidateProfile = &c
		}
		summary = append(summary, entry)
	}
	return summary, rows.Err()
}

// HasVoted reports whether the account has a recorded ballot. Lets a client
// resolve an ambiguous cast timeout without risking a double vote.
func (s *VoteService) HasVoted(ctx context.Context, accountID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM votes WHERE voter_account_id = ?)", accountID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("querying vote status: %w", err)
	}
	return exists, nil
}

// RecordSnapshot persists a point-in-time tally and pushes it to the live
// feed. Called by the periodic snapshot job.
func (s *VoteService) RecordSnapshot(ctx context.Context) (models.VoteSnapshot, error) {
	summary, err := s.GetSummary(ctx)
	if err != nil {
		return models.VoteSnapshot{}, err
	}

	total := 0
	for _, entry := range summary {
		total += entry.Count
	}

	tally, err := json.Marshal(summary)
	if err != nil {
		return models.VoteSnapshot{}, fmt.Errorf("encoding tally: %w", err)
	}

	snapshot := models.VoteSnapshot{
		ID:        uuid.New().String(),
		Total:     total,
		TallyJSON: string(tally),
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO vote_snapshots (id, total, tally_json) VALUES (?, ?, ?)",
		snapshot.ID, snapshot.Total, snapshot.TallyJSON)
	if err != nil {
		return models.VoteSnapshot{}, fmt.Errorf("inserting snapshot: %w", err)
	}

	if s.hub != nil {
		s.hub.Broadcast <- ws.NewSummaryMessage(summary)
	}
	return snapshot, nil
}

// broadcastSummary pushes the current tally to the live feed after a vote.
// Best-effort; a feed failure never affects the ballot.
func (s *VoteService) broadcastSummary() {
	if s.hub == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		summary, err := s.GetSummary(ctx)
		if err != nil {
			log.Error().Err(err).Msg("Failed to build summary for broadcast")
			return
		}
		s.hub.Broadcast <- ws.NewSummaryMessage(summary)
	}()
}
