package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/calloway/hearthside/internal/apperr"
	"github.com/calloway/hearthside/internal/auth"
	"github.com/calloway/hearthside/internal/authz"
	"github.com/calloway/hearthside/internal/push"
	"github.com/calloway/hearthside/internal/store"
	ws "github.com/calloway/hearthside/internal/websocket"
)

type MedicationHandler struct {
	meds     *store.MedicationStore
	guard    *authz.Guard
	hub      *ws.Hub
	notifier *push.Notifier
	logger   *slog.Logger
}

func NewMedicationHandler(meds *store.MedicationStore, guard *authz.Guard, hub *ws.Hub, notifier *push.Notifier, logger *slog.Logger) *MedicationHandler {
	return &MedicationHandler{meds: meds, guard: guard, hub: hub, notifier: notifier, logger: logger}
}

type medicationRequest struct {
	Name     string `json:"name"`
	Dosage   string `json:"dosage"`
	Schedule string `json:"schedule"`
}

// Create handles POST /api/medications
func (h *MedicationHandler) Create(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	// Medication definitions are events-grade content, not logs.
	if err := h.guard.Authorize(ac.UserID, ac.FamilyID, authz.ResourceEvent, authz.ActionCreate); err != nil {
		writeError(w, h.logger, err)
		return
	}

	var req medicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if req.Name == "" {
		writeError(w, h.logger, fmt.Errorf("name is required: %w", apperr.ErrValidation))
		return
	}

	m, err := h.meds.Create(ac.FamilyID, req.Name, req.Dosage, req.Schedule)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.hub.Broadcast(ac.FamilyID, ws.NewMessage("medication", "created", m.ID, nil))
	writeJSON(w, http.StatusCreated, m)
}

// List handles GET /api/medications
func (h *MedicationHandler) List(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	if err := h.guard.Authorize(ac.UserID, ac.FamilyID, authz.ResourceEvent, authz.ActionRead); err != nil {
		writeError(w, h.logger, err)
		return
	}

	meds, err := h.meds.ListByFamily(ac.FamilyID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if meds == nil {
		writeJSON(w, http.StatusOK, []any{})
		return
	}
	writeJSON(w, http.StatusOK, meds)
}

// Update handles PUT /api/medications/{id}
func (h *MedicationHandler) Update(w http.ResponseWriter, r *http.Request) {
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

	var req medicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	existing, err := h.meds.GetByID(id, ac.FamilyID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if existing == nil {
		writeError(w, h.logger, fmt.Errorf("medication %d: %w", id, apperr.ErrNotFound))
		return
	}

	m, err := h.meds.Update(id, ac.FamilyID, req.Name, req.Dosage, req.Schedule)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.hub.Broadcast(ac.FamilyID, ws.NewMessage("medication", "updated", m.ID, nil))
	writeJSON(w, http.StatusOK, m)
}

// Delete handles DELETE /api/medications/{id}
func (h *MedicationHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

	existing, err := h.meds.GetByID(id, ac.FamilyID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if existing == nil {
		writeError(w, h.logger, fmt.Errorf("medication %d: %w", id, apperr.ErrNotFound))
		return
	}

	if err := h.meds.Delete(id, ac.FamilyID); err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.hub.Broadcast(ac.FamilyID, ws.NewMessage("medication", "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}

type medicationLogRequest struct {
	TakenAt time.Time `json:"taken_at"`
	Note    string    `json:"note"`
}

// CreateLog handles POST /api/medications/{id}/logs
func (h *MedicationHandler) CreateLog(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	if err := h.guard.Authorize(ac.UserID, ac.FamilyID, authz.ResourceMedicationLog, authz.ActionCreate); err != nil {
		writeError(w, h.logger, err)
		return
	}

	medicationID, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	med, err := h.meds.GetByID(medicationID, ac.FamilyID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if med == nil {
		writeError(w, h.logger, fmt.Errorf("medication %d: %w", medicationID, apperr.ErrNotFound))
		return
	}

	var req medicationLogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if req.TakenAt.IsZero() {
		req.TakenAt = time.Now()
	}

	l, err := h.meds.CreateLog(ac.FamilyID, medicationID, req.TakenAt, req.Note, ac.UserID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.hub.Broadcast(ac.FamilyID, ws.NewMessage("medication_log", "created", l.ID, nil))
	if h.notifier != nil {
		go h.notifier.NotifyFamily(ac.FamilyID, ac.UserID, push.Payload{
			Title: "Medication logged",
			Body:  fmt.Sprintf("%s was recorded as taken", med.Name),
			Tag:   "medication-log-" + strconv.FormatInt(l.ID, 10),
		})
	}
	writeJSON(w, http.StatusCreated, l)
}

// ListLogs handles GET /api/medications/{id}/logs
func (h *MedicationHandler) ListLogs(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	if err := h.guard.Authorize(ac.UserID, ac.FamilyID, authz.ResourceMedicationLog, authz.ActionRead); err != nil {
		writeError(w, h.logger, err)
		return
	}

	medicationID, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	logs, err := h.meds.ListLogs(ac.FamilyID, medicationID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if logs == nil {
		writeJSON(w, http.StatusOK, []any{})
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

// UpdateLog handles PUT /api/medication-logs/{id}
func (h *MedicationHandler) UpdateLog(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	if err := h.guard.Authorize(ac.UserID, ac.FamilyID, authz.ResourceMedicationLog, authz.ActionUpdate); err != nil {
		writeError(w, h.logger, err)
		return
	}

	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	var req medicationLogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	existing, err := h.meds.GetLogByID(id, ac.FamilyID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if existing == nil {
		writeError(w, h.logger, fmt.Errorf("medication log %d: %w", id, apperr.ErrNotFound))
		return
	}

	l, err := h.meds.UpdateLog(id, ac.FamilyID, req.TakenAt, req.Note)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.hub.Broadcast(ac.FamilyID, ws.NewMessage("medication_log", "updated", l.ID, nil))
	writeJSON(w, http.StatusOK, l)
}

// DeleteLog handles DELETE /api/medication-logs/{id}
func (h *MedicationHandler) DeleteLog(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	if err := h.guard.Authorize(ac.UserID, ac.FamilyID, authz.ResourceMedicationLog, authz.ActionDelete); err != nil {
		writeError(w, h.logger, err)
		return
	}

	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	existing, err := h.meds.GetLogByID(id, ac.FamilyID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if existing == nil {
		writeError(w, h.logger, fmt.Errorf("medication log %d: %w", id, apperr.ErrNotFound))
		return
	}

	if err := h.meds.DeleteLog(id, ac.FamilyID); err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.hub.Broadcast(ac.FamilyID, ws.NewMessage("medication_log", "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}
