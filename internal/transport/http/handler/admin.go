package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/contrib-gateway/internal/application/admin"
	"github.com/contrib-gateway/internal/domain"
)

// AdminHandler serves the operator surface.
type AdminHandler struct {
	svc admin.Service
}

func NewAdminHandler(svc admin.Service) *AdminHandler {
	return &AdminHandler{svc: svc}
}

// TokenEnvelope wraps a successful admin login.
type TokenEnvelope struct {
	Bearer string `json:"Bearer"`
}

// SubmissionsEnvelope wraps the audit listing.
type SubmissionsEnvelope struct {
	Submissions []domain.SubmissionRecord `json:"submissions"`
}

// Login handles POST /v1/admin/login.
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		OAuthCode string `json:"oauth_code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	token, err := h.svc.Login(r.Context(), body.OAuthCode)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, TokenEnvelope{Bearer: token})
}

// Submissions handles GET /v1/admin/submissions.
func (h *AdminHandler) Submissions(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	recs, err := h.svc.RecentSubmissions(r.Context(), int32(limit))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SubmissionsEnvelope{Submissions: recs})
}
