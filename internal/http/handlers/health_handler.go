package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"task-tracker/internal/http/dto"
	"task-tracker/internal/http/middleware"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	pinger Pinger
	logger *slog.Logger
}

func NewHealth(pinger Pinger, logger *slog.Logger) *HealthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthHandler{pinger: pinger, logger: logger}
}

// GET /healthz
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	if err := h.pinger.Ping(r.Context()); err != nil {
		h.logger.WarnContext(r.Context(), "health check failed",
			slog.Any("error", err),
			slog.String("request_id", middleware.RequestIDFrom(r.Context())),
		)
		writeError(w, http.StatusServiceUnavailable, "backing store unavailable")
		return
	}

	writeJSON(w, http.StatusOK, dto.HealthResponse{Status: "ok"})
}
