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
	"github.com/calloway/hearthside/internal/model"
	"github.com/calloway/hearthside/internal/store"
	ws "github.com/calloway/hearthside/internal/websocket"
)

type TimeEntryHandler struct {
	entries *store.TimeEntryStore
	guard   *authz.Guard
	hub     *ws.Hub
	logger  *slog.Logger
}

func NewTimeEntryHandler(entries *store.TimeEntryStore, guard *authz.Guard, hub *ws.Hub, logger *slog.Logger) *TimeEntryHandler {
	return &TimeEntryHandler{entries: entries, guard: guard, hub: hub, logger: logger}
}

type timeEntryRequest struct {
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Note      string     `json:"note"`
}

func (req *timeEntryRequest) validate() error {
	if req.StartTime.IsZero() {
		return fmt.Errorf("start_time is required: %w", apperr.ErrValidation)
	}
	if req.EndTime != nil && !req.EndTime.After(req.StartTime) {
		return fmt.Errorf("end_time must follow start_time: %w", apperr.ErrValidation)
	}
	return nil
}

// Create handles POST /api/time-entries
func (h *TimeEntryHandler) Create(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	if err := h.guard.Authorize(ac.UserID, ac.FamilyID, authz.ResourceTimeEntry, authz.ActionCreate); err != nil {
		writeError(w, h.logger, err)
		return
	}

	var req timeEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, h.logger, err)
		return
	}

	t, err := h.entries.Create(ac.FamilyID, ac.UserID, req.StartTime, req.EndTime, req.Note)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.hub.Broadcast(ac.FamilyID, ws.NewMessage("time_entry", "created", t.ID, nil))
	writeJSON(w, http.StatusCreated, t)
}

// List handles GET /api/time-entries
func (h *TimeEntryHandler) List(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	if err := h.guard.Authorize(ac.UserID, ac.FamilyID, authz.ResourceTimeEntry, authz.ActionRead); err != nil {
		writeError(w, h.logger, err)
		return
	}

	entries, err := h.entries.ListByFamily(ac.FamilyID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if entries == nil {
		writeJSON(w, http.StatusOK, []any{})
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// Update handles PUT /api/time-entries/{id}
func (h *TimeEntryHandler) Update(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	if err := h.guard.Authorize(ac.UserID, ac.FamilyID, authz.ResourceTimeEntry, authz.ActionUpdate); err != nil {
		writeError(w, h.logger, err)
		return
	}

	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	var req timeEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, h.logger, err)
		return
	}

	existing, err := h.entries.GetByID(id, ac.FamilyID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if existing == nil {
		writeError(w, h.logger, fmt.Errorf("time entry %d: %w", id, apperr.ErrNotFound))
		return
	}

	// Caregivers adjust only their own entries; members and owners can fix
	// anyone's.
	if ac.Role == model.RoleCaregiver && existing.UserID != ac.UserID {
		writeError(w, h.logger, fmt.Errorf("time entry %d: %w", id, apperr.ErrForbidden))
		return
	}

	t, err := h.entries.Update(id, ac.FamilyID, req.StartTime, req.EndTime, req.Note)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.hub.Broadcast(ac.FamilyID, ws.NewMessage("time_entry", "updated", t.ID, nil))
	writeJSON(w, http.StatusOK, t)
}

// Delete handles DELETE /api/time-entries/{id}
func (h *TimeEntryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	if err := h.guard.Authorize(ac.UserID, ac.FamilyID, authz.ResourceTimeEntry, authz.ActionDelete); err != nil {
		writeError(w, h.logger, err)
		return
	}

	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	existing, err := h.entries.GetByID(id, ac.FamilyID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if existing == nil {
		writeError(w, h.logger, fmt.Errorf("time entry %d: %w", id, apperr.ErrNotFound))
		return
	}

	if err := h.entries.Delete(id, ac.FamilyID); err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.hub.Broadcast(ac.FamilyID, ws.NewMessage("time_entry", "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}

type payRateRequest struct {
	UserID      int64  `json:"user_id"`
	HourlyCents int64  `json:"hourly_cents"`
	Currency    string `json:"currency"`
}

// SetPayRate handles PUT /api/pay-rates
func (h *TimeEntryHandler) SetPayRate(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	if err := h.guard.Authorize(ac.UserID, ac.FamilyID, authz.ResourcePayRate, authz.ActionUpdate); err != nil {
		writeError(w, h.logger, err)
		return
	}

	var req payRateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if req.UserID == 0 || req.HourlyCents < 0 {
		writeError(w, h.logger, fmt.Errorf("user_id and a non-negative hourly_cents are required: %w", apperr.ErrValidation))
		return
	}
	if req.Currency == "" {
		req.Currency = "USD"
	}

	p, err := h.entries.SetPayRate(ac.FamilyID, req.UserID, req.HourlyCents, req.Currency)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// ListPayRates handles GET /api/pay-rates
func (h *TimeEntryHandler) ListPayRates(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	if err := h.guard.Authorize(ac.UserID, ac.FamilyID, authz.ResourcePayRate, authz.ActionRead); err != nil {
		writeError(w, h.logger, err)
		return
	}

	rates, err := h.entries.ListPayRates(ac.FamilyID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if rates == nil {
		writeJSON(w, http.StatusOK, []any{})
		return
	}
	writeJSON(w, http.StatusOK, rates)
}
