package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/calloway/hearthside/internal/apperr"
	"github.com/calloway/hearthside/internal/auth"
	"github.com/calloway/hearthside/internal/authz"
	"github.com/calloway/hearthside/internal/store"
	ws "github.com/calloway/hearthside/internal/websocket"
)

type EventHandler struct {
	events *store.EventStore
	guard  *authz.Guard
	hub    *ws.Hub
	logger *slog.Logger
}

func NewEventHandler(events *store.EventStore, guard *authz.Guard, hub *ws.Hub, logger *slog.Logger) *EventHandler {
	return &EventHandler{events: events, guard: guard, hub: hub, logger: logger}
}

type eventRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	AllDay      bool      `json:"all_day"`
	Location    string    `json:"location"`
}

func (req *eventRequest) validate() error {
	if req.Title == "" {
		return fmt.Errorf("title is required: %w", apperr.ErrValidation)
	}
	if req.StartTime.IsZero() || req.EndTime.IsZero() {
		return fmt.Errorf("start_time and end_time are required: %w", apperr.ErrValidation)
	}
	if !req.EndTime.After(req.StartTime) {
		return fmt.Errorf("end_time must follow start_time: %w", apperr.ErrValidation)
	}
	return nil
}

// Create handles POST /api/events
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	if err := h.guard.Authorize(ac.UserID, ac.FamilyID, authz.ResourceEvent, authz.ActionCreate); err != nil {
		writeError(w, h.logger, err)
		return
	}

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, h.logger, err)
		return
	}

	e, err := h.events.Create(ac.FamilyID, req.Title, req.Description, req.StartTime, req.EndTime, req.AllDay, req.Location, ac.UserID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.hub.Broadcast(ac.FamilyID, ws.NewMessage("event", "created", e.ID, nil))
	writeJSON(w, http.StatusCreated, e)
}

// List handles GET /api/events?start=RFC3339&end=RFC3339
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	if err := h.guard.Authorize(ac.UserID, ac.FamilyID, authz.ResourceEvent, authz.ActionRead); err != nil {
		writeError(w, h.logger, err)
		return
	}

	q := r.URL.Query()
	start, err := time.Parse(time.RFC3339, q.Get("start"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid start"})
		return
	}
	end, err := time.Parse(time.RFC3339, q.Get("end"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid end"})
		return
	}

	events, err := h.events.ListByDateRange(ac.FamilyID, start, end)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if events == nil {
		writeJSON(w, http.StatusOK, []any{})
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// Get handles GET /api/events/{id}
func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	if err := h.guard.Authorize(ac.UserID, ac.FamilyID, authz.ResourceEvent, authz.ActionRead); err != nil {
		writeError(w, h.logger, err)
		return
	}

	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	e, err := h.events.GetByID(id, ac.FamilyID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if e == nil {
		writeError(w, h.logger, fmt.Errorf("event %d: %w", id, apperr.ErrNotFound))
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// Update handles PUT /api/events/{id}
func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	if err := h.guard.Authorize(ac.UserID, ac.FamilyID, authz.ResourceEvent, authz.ActionUpdate); err != nil {
		writeError(w, h.logger, err)
		return
	}

	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, h.logger, err)
		return
	}

	existing, err := h.events.GetByID(id, ac.FamilyID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if existing == nil {
		writeError(w, h.logger, fmt.Errorf("event %d: %w", id, apperr.ErrNotFound))
		return
	}

	e, err := h.events.Update(id, ac.FamilyID, req.Title, req.Description, req.StartTime, req.EndTime, req.AllDay, req.Location)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.hub.Broadcast(ac.FamilyID, ws.NewMessage("event", "updated", e.ID, nil))
	writeJSON(w, http.StatusOK, e)
}

// Delete handles DELETE /api/events/{id}
func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	if err := h.guard.Authorize(ac.UserID, ac.FamilyID, authz.ResourceEvent, authz.ActionDelete); err != nil {
		writeError(w, h.logger, err)
		return
	}

	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	existing, err := h.events.GetByID(id, ac.FamilyID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if existing == nil {
		writeError(w, h.logger, fmt.Errorf("event %d: %w", id, apperr.ErrNotFound))
		return
	}

	if err := h.events.Delete(id, ac.FamilyID); err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.hub.Broadcast(ac.FamilyID, ws.NewMessage("event", "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}
