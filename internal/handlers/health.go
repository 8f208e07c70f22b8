package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/shortreel/backend/internal/logging"
)

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler responds with service health information.
type HealthHandler struct {
	// Database is optional; when set, /healthz reports "degraded" if it cannot be reached.
	Database Pinger
}

// Handle implements GET /healthz.
func (h HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	payload := map[string]string{"status": "ok"}
	if h.Database != nil {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := h.Database.Ping(pingCtx); err != nil {
			logging.FromContext(ctx).Warn("health check database ping failed", "error", err)
			payload["status"] = "degraded"
			payload["database"] = "unreachable"
		}
	}

	respondJSON(ctx, w, http.StatusOK, payload)
}
