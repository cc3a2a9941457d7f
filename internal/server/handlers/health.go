package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"galaxy-server/internal/galaxy"
	"galaxy-server/internal/shared/response"
)

type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthResponse struct {
	Status    string       `json:"status"`
	Timestamp string       `json:"timestamp"`
	Database  string       `json:"database"`
	Redis     string       `json:"redis"`
	Galaxy    galaxy.State `json:"galaxy"`
}

type HealthHandler struct {
	db      Pinger
	cache   Pinger
	service *galaxy.Service
}

// NewHealthHandler reports on the database, the optional buffer cache (nil
// when Redis is disabled) and the regeneration state.
func NewHealthHandler(db Pinger, cache Pinger, service *galaxy.Service) *HealthHandler {
	return &HealthHandler{db: db, cache: cache, service: service}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "health")

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().Format(time.RFC3339),
		Database:  "connected",
		Redis:     "disabled",
		Galaxy:    h.service.Status().State,
	}

	if err := h.db.PingContext(ctx); err != nil {
		logger.Warn("Database ping failed", "error", err)
		resp.Database = "disconnected"
		resp.Status = "degraded"
	}

	if h.cache != nil {
		resp.Redis = "connected"
		if err := h.cache.PingContext(ctx); err != nil {
			logger.Warn("Redis ping failed", "error", err)
			resp.Redis = "disconnected"
			resp.Status = "degraded"
		}
	}

	response.Success(w, http.StatusOK, resp)
}
