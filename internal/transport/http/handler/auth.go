package handler

import (
	"encoding/json"
	"net/http"

	"github.com/contrib-gateway/internal/application/submission"
)

// AuthHandler issues email verification codes.
type AuthHandler struct {
	svc submission.Service
}

func NewAuthHandler(svc submission.Service) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// SendCode handles POST /v1/auth/send.
func (h *AuthHandler) SendCode(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Address string `json:"address"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.svc.RequestCode(r.Context(), body.Address); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "verification code sent"})
}
