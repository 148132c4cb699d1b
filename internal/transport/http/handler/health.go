package handler

import (
	"net/http"

	"github.com/contrib-gateway/internal/config"
)

// HealthHandler reports liveness and how much of the configuration is set.
type HealthHandler struct {
	cfg *config.Config
}

func NewHealthHandler(cfg *config.Config) *HealthHandler {
	return &HealthHandler{cfg: cfg}
}

// HealthEnvelope is the health-check response.
type HealthEnvelope struct {
	Status         string `json:"status"`
	ConfigOK       int    `json:"config_ok"`
	ConfigExpected int    `json:"config_expected"`
}

func (h *HealthHandler) Check(w http.ResponseWriter, _ *http.Request) {
	ok, total := h.cfg.Stats()
	status := "ok"
	if ok < total {
		status = "degraded"
	}
	writeJSON(w, http.StatusOK, HealthEnvelope{
		Status:         status,
		ConfigOK:       ok,
		ConfigExpected: total,
	})
}
