package api

import (
	"net/http"

	"github.com/ayusman/gestpipe/internal/store"
)

const (
	defaultEventLimit = 50
	maxEventLimit     = 500
)

type listEventsResponse struct {
	Events []store.Event `json:"events"`
}

// EventHandler serves the recognition event log.
type EventHandler struct {
	store *store.Store
}

// NewEventHandler creates a new EventHandler with the given store.
func NewEventHandler(s *store.Store) *EventHandler {
	return &EventHandler{store: s}
}

// ServeHTTP handles GET /api/events?limit= and returns the newest events.
func (h *EventHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryLimit(r, defaultEventLimit, maxEventLimit)
	if !ok {
		writeError(w, http.StatusBadRequest, "limit must be a positive integer")
		return
	}

	events, err := h.store.Events().Recent(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list events")
		return
	}
	if events == nil {
		events = []store.Event{}
	}
	writeJSON(w, http.StatusOK, listEventsResponse{Events: events})
}
