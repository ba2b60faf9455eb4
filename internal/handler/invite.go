package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/calloway/hearthside/internal/auth"
	"github.com/calloway/hearthside/internal/invite"
)

type InviteHandler struct {
	service *invite.Service
	logger  *slog.Logger
}

func NewInviteHandler(service *invite.Service, logger *slog.Logger) *InviteHandler {
	return &InviteHandler{service: service, logger: logger}
}

type issueInviteRequest struct {
	FamilyID  int64      `json:"family_id"`
	Role      string     `json:"role"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Issue handles POST /api/invites
func (h *InviteHandler) Issue(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req issueInviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	ic, err := h.service.Issue(r.Context(), userID, req.FamilyID, req.Role, req.ExpiresAt)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, ic)
}

type forwardInviteRequest struct {
	FamilyID  int64      `json:"family_id"`
	Email     string     `json:"email"`
	Role      string     `json:"role"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Forward handles POST /api/invites/forward
func (h *InviteHandler) Forward(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req forwardInviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	ic, err := h.service.Forward(r.Context(), userID, req.FamilyID, req.Email, req.Role, req.ExpiresAt)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, ic)
}

type joinRequest struct {
	Code string `json:"code"`
}

// Join handles POST /api/join
func (h *InviteHandler) Join(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	var req joinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	m, err := h.service.Redeem(ac.UserID, req.Code)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// List handles GET /api/invites?family_id=N
func (h *InviteHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	familyID, err := parseQueryID(r, "family_id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid family_id"})
		return
	}

	codes, err := h.service.List(userID, familyID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if codes == nil {
		writeJSON(w, http.StatusOK, []any{})
		return
	}
	writeJSON(w, http.StatusOK, codes)
}

type revokeInviteRequest struct {
	FamilyID int64 `json:"family_id"`
}

// Revoke handles DELETE /api/invites/{id}
func (h *InviteHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	inviteID, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	var req revokeInviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	if err := h.service.Revoke(userID, req.FamilyID, inviteID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
