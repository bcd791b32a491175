package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/iudanet/gophblog/internal/server/storage"
)

const healthPingTimeout = 2 * time.Second

// HealthHandler обрабатывает health check запросы
type HealthHandler struct {
	responder
	pinger  storage.Pinger
	version string
}

// NewHealthHandler создает новый handler для health check.
// pinger может быть nil, тогда проверяется только то, что процесс жив.
func NewHealthHandler(logger *slog.Logger, pinger storage.Pinger, version string) *HealthHandler {
	return &HealthHandler{
		responder: responder{logger: logger},
		pinger:    pinger,
		version:   version,
	}
}

// HealthResponse представляет ответ health check
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

// Health обрабатывает GET /api/health
// Health check endpoint для мониторинга
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:  "ok",
		Version: h.version,
	}

	if h.pinger != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
		defer cancel()

		if err := h.pinger.Ping(ctx); err != nil {
			h.logger.ErrorContext(ctx, "Storage ping failed", slog.Any("error", err))
			resp.Status = "unavailable"
			h.sendJSON(w, resp, http.StatusServiceUnavailable)
			return
		}
	}

	h.sendJSON(w, resp, http.StatusOK)
}
