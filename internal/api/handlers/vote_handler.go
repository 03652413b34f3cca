package handlers

import (
	"net/http"

	"github.com/thanakrit-dev/election-be/internal/apperr"
	"github.com/thanakrit-dev/election-be/internal/auth"
	"github.com/thanakrit-dev/election-be/internal/models"
	"github.com/thanakrit-dev/election-be/internal/services"
)

// VoteHandler handles HTTP requests for the ballot ledger.
type VoteHandler struct {
	service services.VoteServiceProvider
}

// NewVoteHandler creates a new VoteHandler.
func NewVoteHandler(service services.VoteServiceProvider) *VoteHandler {
	return &VoteHandler{service: service}
}

// CastPayload defines the structure for vote requests. CandidateID is the
// candidate's account id.
type CastPayload struct {
	CandidateID string `json:"candidateId"`
}

// Cast records the authenticated voter's ballot.
func (h *VoteHandler) Cast(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apperr.ErrAccessDenied)
		return
	}

	var payload CastPayload
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, err)
		return
	}
	if payload.CandidateID == "" {
		writeError(w, apperr.ErrInvalidCandidate)
		return
	}

	receipt, err := h.service.Cast(r.Context(), claims.Subject, payload.CandidateID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, receipt)
}

// Summary returns the aggregated tally. Public and poll-safe.
func (h *VoteHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.GetSummary(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if summary == nil {
		summary = []models.VoteSummaryEntry{}
	}
	writeJSON(w, http.StatusOK, summary)
}

// Me reports whether the authenticated account has voted.
func (h *VoteHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apperr.ErrAccessDenied)
		return
	}

	hasVoted, err := h.service.HasVoted(r.Context(), claims.Subject)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"hasVoted": hasVoted})
}
