package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// pingTimeout bounds the database check behind /healthz.
const pingTimeout = 2 * time.Second

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
}

// HealthHandler serves GET /healthz.
type HealthHandler struct {
	db  Pinger
	log *slog.Logger
}

// NewHealthHandler creates a HealthHandler checking db.
func NewHealthHandler(db Pinger, log *slog.Logger) *HealthHandler {
	return &HealthHandler{db: db, log: log}
}

// ServeHTTP answers 200 {"status":"ok"} when the database answers a ping and
// 503 {"status":"unavailable"} otherwise.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
	defer cancel()

	status, body := http.StatusOK, HealthResponse{Status: "ok"}
	if err := h.db.Ping(ctx); err != nil {
		h.log.WarnContext(ctx, "health check failed", "error", err)
		status, body = http.StatusServiceUnavailable, HealthResponse{Status: "unavailable"}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.WarnContext(ctx, "write health response", "error", err)
	}
}
