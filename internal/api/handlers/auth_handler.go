package handlers

import (
	"net/http"

	"github.com/thanakrit-dev/election-be/internal/apperr"
	"github.com/thanakrit-dev/election-be/internal/auth"
	"github.com/thanakrit-dev/election-be/internal/services"
)

// AuthHandler handles HTTP requests for session management.
type AuthHandler struct {
	service services.AuthServiceProvider
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(service services.AuthServiceProvider) *AuthHandler {
	return &AuthHandler{service: service}
}

// SignupPayload defines the structure for registration requests.
type SignupPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SigninPayload defines the structure for sign-in requests.
type SigninPayload struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	CaptchaToken string `json:"captchaToken"`
}

// Signup handles new voter registration.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var payload SignupPayload
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	pair, err := h.service.SignUp(r.Context(), payload.Email, payload.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, pair)
}

// Signin handles authentication and token pair issuance.
func (h *AuthHandler) Signin(w http.ResponseWriter, r *http.Request) {
	var payload SigninPayload
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	pair, err := h.service.SignIn(r.Context(), payload.Email, payload.Password, payload.CaptchaToken)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

// Refresh rotates the session. The refresh middleware has already validated
// the token's signature and expiry; the service checks it against the stored
// hash and performs the rotation.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	rawToken, okToken := auth.RawTokenFromContext(r.Context())
	if !ok || !okToken {
		writeError(w, apperr.ErrAccessDenied)
		return
	}

	pair, err := h.service.Refresh(r.Context(), claims.Subject, rawToken)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

// Logout terminates the session. Idempotent.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apperr.ErrAccessDenied)
		return
	}

	if err := h.service.Logout(r.Context(), claims.Subject); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
