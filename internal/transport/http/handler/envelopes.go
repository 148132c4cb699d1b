package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/contrib-gateway/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// PartialEnvelope reports a publish that stopped partway: some files are in
// the repository, the named one is not.
type PartialEnvelope struct {
	Error     string   `json:"error"`
	Committed []string `json:"committed"`
	Failed    string   `json:"failed"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// httpError maps a service error onto a status code and writes the envelope.
func httpError(w http.ResponseWriter, err error) {
	var partial *domain.PartialPublishError
	if errors.As(err, &partial) {
		writeJSON(w, http.StatusMultiStatus, PartialEnvelope{
			Error:     partial.Error(),
			Committed: partial.Committed,
			Failed:    partial.FailedPath,
		})
		return
	}

	switch {
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, domain.ErrAuthFailed), errors.Is(err, domain.ErrIdentityMismatch):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrUpstream):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
