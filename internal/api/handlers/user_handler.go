package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/thanakrit-dev/election-be/internal/apperr"
	"github.com/thanakrit-dev/election-be/internal/auth"
	"github.com/thanakrit-dev/election-be/internal/models"
	"github.com/thanakrit-dev/election-be/internal/services"
)

// UserHandler handles HTTP requests for account administration.
type UserHandler struct {
	service services.UserServiceProvider
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service services.UserServiceProvider) *UserHandler {
	return &UserHandler{service: service}
}

// List returns accounts, optionally filtered by role. Any authenticated
// account may list candidates; everything else is admin only.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apperr.ErrAccessDenied)
		return
	}

	role := models.Role(r.URL.Query().Get("role"))
	if role != models.RoleCandidate && claims.Role != models.RoleAdmin {
		writeError(w, apperr.ErrAccessDenied)
		return
	}
	if role != "" && !role.Valid() {
		writeError(w, apperr.ErrValidation)
		return
	}

	accounts, err := h.service.GetAllAccounts(r.Context(), role)
	if err != nil {
		writeError(w, err)
		return
	}
	if accounts == nil {
		accounts = []models.Account{}
	}
	writeJSON(w, http.StatusOK, accounts)
}

// Get retrieves one account. Admin, or the account itself.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apperr.ErrAccessDenied)
		return
	}

	id := chi.URLParam(r, "id")
	if claims.Role != models.RoleAdmin && claims.Subject != id {
		writeError(w, apperr.ErrAccessDenied)
		return
	}

	account, err := h.service.GetAccountByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// Update modifies an account's email or role. Admin only.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var payload struct {
		Email string      `json:"email"`
		Role  models.Role `json:"role"`
	}
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	account, err := h.service.UpdateAccount(r.Context(), id, payload.Email, payload.Role)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// Delete removes an account. Admin only.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteAccount(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
