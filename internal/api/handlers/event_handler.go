package handlers

import (
	"net/http"
	"strconv"

	"github.com/thanakrit-dev/election-be/internal/models"
	"github.com/thanakrit-dev/election-be/internal/services"
)

// EventHandler handles HTTP requests for the audit trail. Admin only.
type EventHandler struct {
	service services.EventServiceProvider
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(service services.EventServiceProvider) *EventHandler {
	return &EventHandler{service: service}
}

// Recent returns the most recent audit events.
func (h *EventHandler) Recent(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	events, err := h.service.GetRecentEvents(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if events == nil {
		events = []models.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}
