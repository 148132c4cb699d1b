package handler

import (
	"encoding/json"
	"net/http"

	"github.com/contrib-gateway/internal/application/submission"
)

// SubmitHandler accepts contribution submissions.
type SubmitHandler struct {
	svc submission.Service
}

func NewSubmitHandler(svc submission.Service) *SubmitHandler {
	return &SubmitHandler{svc: svc}
}

// SubmitEnvelope wraps a successful publish.
type SubmitEnvelope struct {
	Message   string   `json:"message"`
	CommitSHA string   `json:"commit_sha"`
	Paths     []string `json:"paths"`
}

// Submit handles POST /v1/submit.
func (h *SubmitHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submission.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	result, err := h.svc.Submit(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, SubmitEnvelope{
		Message:   "submission published",
		CommitSHA: result.CommitSHA,
		Paths:     result.Paths,
	})
}
