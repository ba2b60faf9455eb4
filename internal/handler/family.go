package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/calloway/hearthside/internal/apperr"
	"github.com/calloway/hearthside/internal/auth"
	"github.com/calloway/hearthside/internal/family"
	"github.com/calloway/hearthside/internal/model"
	"github.com/calloway/hearthside/internal/selector"
	"github.com/calloway/hearthside/internal/store"
)

type FamilyHandler struct {
	manager  *family.Manager
	families *store.FamilyStore
	sessions *store.SessionStore
	logger   *slog.Logger
}

func NewFamilyHandler(manager *family.Manager, families *store.FamilyStore, sessions *store.SessionStore, logger *slog.Logger) *FamilyHandler {
	return &FamilyHandler{manager: manager, families: families, sessions: sessions, logger: logger}
}

type createFamilyRequest struct {
	Name string `json:"name"`
}

type createFamilyResponse struct {
	Family     *model.Family     `json:"family"`
	InviteCode *model.InviteCode `json:"invite_code,omitempty"`
}

// Create handles POST /api/families
func (h *FamilyHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req createFamilyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	f, ic, err := h.manager.CreateFamily(r.Context(), userID, req.Name)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	// A freshly created family becomes the active one.
	if ac, ok := auth.FromContext(r.Context()); ok {
		if err := h.sessions.UpdateFamilyID(ac.SessionID, f.ID); err != nil {
			h.logger.Error("set active family after create", "family_id", f.ID, "error", err)
		}
	}

	writeJSON(w, http.StatusCreated, createFamilyResponse{Family: f, InviteCode: ic})
}

// List handles GET /api/families
func (h *FamilyHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	families, err := h.families.ListForUser(userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if families == nil {
		writeJSON(w, http.StatusOK, []any{})
		return
	}
	writeJSON(w, http.StatusOK, families)
}

// Role handles GET /api/families/{id}/role
func (h *FamilyHandler) Role(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	familyID, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	member, err := h.families.GetMember(familyID, userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if member == nil {
		// Non-members get the same answer as a nonexistent family.
		writeError(w, h.logger, fmt.Errorf("family %d: %w", familyID, apperr.ErrForbidden))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"role": member.Role})
}

// Members handles GET /api/families/{id}/members
func (h *FamilyHandler) Members(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	familyID, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	member, err := h.families.GetMember(familyID, userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if member == nil {
		writeError(w, h.logger, fmt.Errorf("family %d: %w", familyID, apperr.ErrForbidden))
		return
	}

	members, err := h.families.ListMembers(familyID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, members)
}

type switchFamilyRequest struct {
	FamilyID int64 `json:"family_id"`
}

// Switch handles POST /api/families/switch. The explicit transition: unlike
// the per-request fallback it refuses targets the user is not a member of.
func (h *FamilyHandler) Switch(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	var req switchFamilyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	families, err := h.families.ListForUser(ac.UserID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	target, err := selector.Switch(req.FamilyID, families)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.sessions.UpdateFamilyID(ac.SessionID, target); err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.logger.Info("active family switched", "user_id", ac.UserID, "family_id", target)
	writeJSON(w, http.StatusOK, map[string]int64{"family_id": target})
}

// Leave handles POST /api/families/{id}/leave
func (h *FamilyHandler) Leave(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	familyID, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	if err := h.manager.LeaveFamily(userID, familyID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /api/families/{id}
func (h *FamilyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	familyID, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	if err := h.manager.DeleteFamily(r.Context(), userID, familyID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type removeMemberRequest struct {
	UserID int64 `json:"user_id"`
}

// RemoveMember handles DELETE /api/families/{id}/members
func (h *FamilyHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	callerID := auth.UserID(r.Context())

	familyID, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	var req removeMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	if err := h.manager.RemoveMember(callerID, familyID, req.UserID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
