package handlers

import (
	"net/http"

	"github.com/thanakrit-dev/election-be/internal/services"
)

// SettingHandler handles HTTP requests for the voting toggle.
type SettingHandler struct {
	service services.SettingServiceProvider
}

// NewSettingHandler creates a new SettingHandler.
func NewSettingHandler(service services.SettingServiceProvider) *SettingHandler {
	return &SettingHandler{service: service}
}

// VotingPayload defines the toggle payload.
type VotingPayload struct {
	VotingEnabled bool `json:"votingEnabled"`
}

// GetVoting reports the current toggle state. Public.
func (h *SettingHandler) GetVoting(w http.ResponseWriter, r *http.Request) {
	enabled, err := h.service.GetVotingEnabled(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, VotingPayload{VotingEnabled: enabled})
}

// SetVoting flips the toggle. Admin only, enforced by the router.
func (h *SettingHandler) SetVoting(w http.ResponseWriter, r *http.Request) {
	var payload VotingPayload
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	if err := h.service.SetVotingEnabled(r.Context(), payload.VotingEnabled); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, VotingPayload{VotingEnabled: payload.VotingEnabled})
}
