package handlers

import (
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/resqnet/incident-server/internal/geo"
)

var startTime = time.Now()

// HealthHandler reports liveness and readiness of the server and its
// collaborators.
type HealthHandler struct {
	db     *pgxpool.Pool
	index  *geo.RedisIndex
	logger *zap.SugaredLogger
}

func NewHealthHandler(db *pgxpool.Pool, index *geo.RedisIndex, logger *zap.SugaredLogger) *HealthHandler {
	return &HealthHandler{db: db, index: index, logger: logger}
}

// Check handles GET /api/v1/health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"uptime": time.Since(startTime).Round(time.Second).String(),
	})
}

// Ready handles GET /api/v1/health/ready
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"database": "ok", "spatial_index": "ok"}
	healthy := true

	if err := h.db.Ping(r.Context()); err != nil {
		h.logger.Errorw("Database health check failed", "error", err)
		status["database"] = "unreachable"
		healthy = false
	}
	if err := h.index.Health(r.Context()); err != nil {
		h.logger.Errorw("Spatial index health check failed", "error", err)
		status["spatial_index"] = "unreachable"
		healthy = false
	}

	code := http.StatusOK
	if !healthy {
		code = http.StatusServiceUnavailable
	}
	respondJSON(w, code, status)
}
