package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/calloway/hearthside/internal/apperr"
	"github.com/calloway/hearthside/internal/auth"
	"github.com/calloway/hearthside/internal/authz"
	"github.com/calloway/hearthside/internal/push"
	"github.com/calloway/hearthside/internal/store"
	ws "github.com/calloway/hearthside/internal/websocket"
)

const maxMessageLength = 2000

type MessageHandler struct {
	messages *store.MessageStore
	guard    *authz.Guard
	hub      *ws.Hub
	notifier *push.Notifier
	logger   *slog.Logger
}

func NewMessageHandler(messages *store.MessageStore, guard *authz.Guard, hub *ws.Hub, notifier *push.Notifier, logger *slog.Logger) *MessageHandler {
	return &MessageHandler{messages: messages, guard: guard, hub: hub, notifier: notifier, logger: logger}
}

type messageRequest struct {
	Body string `json:"body"`
}

// Create handles POST /api/messages
func (h *MessageHandler) Create(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	if err := h.guard.Authorize(ac.UserID, ac.FamilyID, authz.ResourceMessage, authz.ActionCreate); err != nil {
		writeError(w, h.logger, err)
		return
	}

	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	body := strings.TrimSpace(req.Body)
	if body == "" {
		writeError(w, h.logger, fmt.Errorf("message body is required: %w", apperr.ErrValidation))
		return
	}
	if len(body) > maxMessageLength {
		writeError(w, h.logger, fmt.Errorf("message exceeds %d characters: %w", maxMessageLength, apperr.ErrValidation))
		return
	}

	m, err := h.messages.Create(ac.FamilyID, ac.UserID, body)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.hub.Broadcast(ac.FamilyID, ws.NewMessage("message", "created", m.ID, nil))
	if h.notifier != nil {
		preview := body
		if len(preview) > 120 {
			preview = preview[:120]
		}
		go h.notifier.NotifyFamily(ac.FamilyID, ac.UserID, push.Payload{
			Title: "New message",
			Body:  preview,
			Tag:   "message-" + strconv.FormatInt(m.ID, 10),
		})
	}
	writeJSON(w, http.StatusCreated, m)
}

// List handles GET /api/messages?limit=N
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	if err := h.guard.Authorize(ac.UserID, ac.FamilyID, authz.ResourceMessage, authz.ActionRead); err != nil {
		writeError(w, h.logger, err)
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, _ = strconv.Atoi(v)
	}

	msgs, err := h.messages.ListByFamily(ac.FamilyID, limit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if msgs == nil {
		writeJSON(w, http.StatusOK, []any{})
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

// Update handles PUT /api/messages/{id}
func (h *MessageHandler) Update(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	if err := h.guard.Authorize(ac.UserID, ac.FamilyID, authz.ResourceMessage, authz.ActionUpdate); err != nil {
		writeError(w, h.logger, err)
		return
	}

	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	body := strings.TrimSpace(req.Body)
	if body == "" {
		writeError(w, h.logger, fmt.Errorf("message body is required: %w", apperr.ErrValidation))
		return
	}

	existing, err := h.messages.GetByID(id, ac.FamilyID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if existing == nil {
		writeError(w, h.logger, fmt.Errorf("message %d: %w", id, apperr.ErrNotFound))
		return
	}

	m, err := h.messages.Update(id, ac.FamilyID, body)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.hub.Broadcast(ac.FamilyID, ws.NewMessage("message", "updated", m.ID, nil))
	writeJSON(w, http.StatusOK, m)
}

// Delete handles DELETE /api/messages/{id}
func (h *MessageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	if err := h.guard.Authorize(ac.UserID, ac.FamilyID, authz.ResourceMessage, authz.ActionDelete); err != nil {
		writeError(w, h.logger, err)
		return
	}

	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	existing, err := h.messages.GetByID(id, ac.FamilyID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if existing == nil {
		writeError(w, h.logger, fmt.Errorf("message %d: %w", id, apperr.ErrNotFound))
		return
	}

	if err := h.messages.Delete(id, ac.FamilyID); err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.hub.Broadcast(ac.FamilyID, ws.NewMessage("message", "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}
