// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/okian/livescore/internal/domain/model"
	"github.com/okian/livescore/internal/domain/types"
)

// EventDependencies defines the read operations behind /events.
type EventDependencies interface {
	Snapshot(ctx context.Context) (types.EventList, error)
	Event(ctx context.Context, id string) (model.Event, error)
}

// EventsHandler handles event reads.
type EventsHandler struct {
	deps EventDependencies
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(deps EventDependencies) *EventsHandler {
	return &EventsHandler{deps: deps}
}

// HandleListEvents handles GET /events requests.
func (h *EventsHandler) HandleListEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	list, err := h.deps.Snapshot(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if list.Events == nil {
		list.Events = []model.Event{}
	}
	writeJSON(w, http.StatusOK, list)
}

// HandleGetEvent handles GET /events/{id} requests.
func (h *EventsHandler) HandleGetEvent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/events/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: invalid event id", ErrBadRequest))
		return
	}
	ev, err := h.deps.Event(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}
