package handler

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/calloway/hearthside/internal/apperr"
	"github.com/calloway/hearthside/internal/auth"
	"github.com/calloway/hearthside/internal/authz"
	"github.com/calloway/hearthside/internal/blob"
	"github.com/calloway/hearthside/internal/store"
	ws "github.com/calloway/hearthside/internal/websocket"
)

// maxDocumentSize caps uploads at 25 MB.
const maxDocumentSize = 25 << 20

type DocumentHandler struct {
	docs   *store.DocumentStore
	blobs  *blob.Store
	guard  *authz.Guard
	hub    *ws.Hub
	logger *slog.Logger
}

func NewDocumentHandler(docs *store.DocumentStore, blobs *blob.Store, guard *authz.Guard, hub *ws.Hub, logger *slog.Logger) *DocumentHandler {
	return &DocumentHandler{docs: docs, blobs: blobs, guard: guard, hub: hub, logger: logger}
}

// Upload handles POST /api/documents (multipart: file, title)
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	if err := h.guard.Authorize(ac.UserID, ac.FamilyID, authz.ResourceDocument, authz.ActionCreate); err != nil {
		writeError(w, h.logger, err)
		return
	}

	if !h.blobs.Configured() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "document storage not configured"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxDocumentSize)
	if err := r.ParseMultipartForm(maxDocumentSize); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid multipart form"})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, h.logger, fmt.Errorf("file field is required: %w", apperr.ErrValidation))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	title := r.FormValue("title")
	if title == "" {
		title = header.Filename
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := blob.NewKey(ac.FamilyID)
	if err := h.blobs.Put(r.Context(), key, contentType, data); err != nil {
		writeError(w, h.logger, err)
		return
	}

	doc, err := h.docs.Create(ac.FamilyID, title, header.Filename, contentType, int64(len(data)), key, ac.UserID)
	if err != nil {
		// Orphaned object; remove it so storage does not leak.
		if delErr := h.blobs.Delete(r.Context(), key); delErr != nil {
			h.logger.Error("clean up orphaned object", "key", key, "error", delErr)
		}
		writeError(w, h.logger, err)
		return
	}

	h.hub.Broadcast(ac.FamilyID, ws.NewMessage("document", "created", doc.ID, nil))
	writeJSON(w, http.StatusCreated, doc)
}

// List handles GET /api/documents
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	if err := h.guard.Authorize(ac.UserID, ac.FamilyID, authz.ResourceDocument, authz.ActionRead); err != nil {
		writeError(w, h.logger, err)
		return
	}

	docs, err := h.docs.ListByFamily(ac.FamilyID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if docs == nil {
		writeJSON(w, http.StatusOK, []any{})
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

// Download handles GET /api/documents/{id}/download
func (h *DocumentHandler) Download(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	if err := h.guard.Authorize(ac.UserID, ac.FamilyID, authz.ResourceDocument, authz.ActionRead); err != nil {
		writeError(w, h.logger, err)
		return
	}

	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	doc, err := h.docs.GetByID(id, ac.FamilyID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if doc == nil {
		writeError(w, h.logger, fmt.Errorf("document %d: %w", id, apperr.ErrNotFound))
		return
	}

	data, err := h.blobs.Get(r.Context(), doc.BlobKey)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	w.Write(data)
}

// Delete handles DELETE /api/documents/{id}
func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	if err := h.guard.Authorize(ac.UserID, ac.FamilyID, authz.ResourceDocument, authz.ActionDelete); err != nil {
		writeError(w, h.logger, err)
		return
	}

	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	doc, err := h.docs.GetByID(id, ac.FamilyID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if doc == nil {
		writeError(w, h.logger, fmt.Errorf("document %d: %w", id, apperr.ErrNotFound))
		return
	}

	if err := h.docs.Delete(id, ac.FamilyID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if doc.BlobKey != "" && h.blobs.Configured() {
		if err := h.blobs.Delete(r.Context(), doc.BlobKey); err != nil {
			h.logger.Error("delete document object", "key", doc.BlobKey, "error", err)
		}
	}

	h.hub.Broadcast(ac.FamilyID, ws.NewMessage("document", "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}
