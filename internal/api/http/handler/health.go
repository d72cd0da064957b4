package handler

import (
	"context"
	"net/http"

	"github.com/warelock/warelock-auth/internal/api/http/response"
)

// Pinger reports backing-store liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health handles GET /healthz with a database ping.
type Health struct {
	db Pinger
}

func NewHealth(db Pinger) *Health {
	return &Health{db: db}
}

func (h *Health) Check(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(r.Context()); err != nil {
		response.WriteError(w, http.StatusInternalServerError, "unhealthy", "database unavailable")
		return
	}
	response.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
