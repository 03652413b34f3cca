package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/thanakrit-dev/election-be/internal/apperr"
	"github.com/thanakrit-dev/election-be/internal/auth"
	"github.com/thanakrit-dev/election-be/internal/models"
	"github.com/thanakrit-dev/election-be/internal/services"
)

// CandidateHandler handles HTTP requests for candidacy management.
type CandidateHandler struct {
	service services.CandidateServiceProvider
}

// NewCandidateHandler creates a new CandidateHandler.
func NewCandidateHandler(service services.CandidateServiceProvider) *CandidateHandler {
	return &CandidateHandler{service: service}
}

// CandidateSignupPayload defines the combined account+candidacy registration.
type CandidateSignupPayload struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
	Slogan      string `json:"slogan"`
	Description string `json:"description"`
	ImageRef    string `json:"imageRef"`
}

// Signup handles combined account and candidacy registration.
func (h *CandidateHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var payload CandidateSignupPayload
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	number, err := h.service.SignupAndApply(r.Context(), payload.Email, payload.Password, models.CandidateApplication{
		DisplayName: payload.DisplayName,
		Slogan:      payload.Slogan,
		Description: payload.Description,
		ImageRef:    payload.ImageRef,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int{"candidateNumber": number})
}

// Apply handles candidacy applications from existing authenticated accounts.
func (h *CandidateHandler) Apply(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apperr.ErrAccessDenied)
		return
	}

	var application models.CandidateApplication
	if err := decodeBody(r, &application); err != nil {
		writeError(w, err)
		return
	}

	candidate, err := h.service.Apply(r.Context(), claims.Subject, application)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, candidate)
}

// GetAll lists all candidacies ordered by candidate number.
func (h *CandidateHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	candidates, err := h.service.GetAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if candidates == nil {
		candidates = []models.Candidate{}
	}
	writeJSON(w, http.StatusOK, candidates)
}

// GetByAccount retrieves the candidacy backed by an account.
func (h *CandidateHandler) GetByAccount(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountId")
	candidate, err := h.service.GetByAccountID(r.Context(), accountID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, candidate)
}

// Update modifies a candidacy's display fields. Only the profile owner or an
// admin may update; candidateNumber and accountId echoed back by naive
// clients are dropped by the payload shape.
func (h *CandidateHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apperr.ErrAccessDenied)
		return
	}

	accountID := chi.URLParam(r, "accountId")
	if claims.Subject != accountID && claims.Role != models.RoleAdmin {
		writeError(w, apperr.ErrAccessDenied)
		return
	}

	var update models.CandidateUpdate
	if err := decodeBody(r, &update); err != nil {
		writeError(w, err)
		return
	}

	candidate, err := h.service.UpdateByAccountID(r.Context(), accountID, update)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, candidate)
}

// Delete removes a candidacy and its backing account. Admin only.
func (h *CandidateHandler) Delete(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountId")
	if err := h.service.DeleteByAccountID(r.Context(), accountID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
