package handler

import (
	"encoding/json"
	"net/http"

	"github.com/contrib-gateway/internal/application/share"
	"github.com/contrib-gateway/internal/domain"
)

// ShareHandler serves the file-share endpoints.
type ShareHandler struct {
	svc share.Service
}

func NewShareHandler(svc share.Service) *ShareHandler {
	return &ShareHandler{svc: svc}
}

// ShareEnvelope wraps a successful share.
type ShareEnvelope struct {
	Message string            `json:"message"`
	File    *domain.ShareFile `json:"file"`
}

// FilesEnvelope wraps the share-directory listing.
type FilesEnvelope struct {
	Files []domain.ShareFile `json:"files"`
}

// Share handles POST /v1/share.
func (h *ShareHandler) Share(w http.ResponseWriter, r *http.Request) {
	var req share.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	file, err := h.svc.Share(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ShareEnvelope{Message: "download link sent", File: file})
}

// List handles GET /v1/share/files.
func (h *ShareHandler) List(w http.ResponseWriter, r *http.Request) {
	files, err := h.svc.List(r.Context())
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, FilesEnvelope{Files: files})
}
