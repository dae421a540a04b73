package handlers

import (
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db    *gorm.DB
	redis *redis.Client
}

func NewHealthHandler(db *gorm.DB, redisClient *redis.Client) *HealthHandler {
	return &HealthHandler{db: db, redis: redisClient}
}

type healthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]string `json:"services"`
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	services := make(map[string]string)
	status := "healthy"

	sqlDB, err := h.db.DB()
	if err != nil {
		services["database"] = "error: " + err.Error()
		status = "degraded"
	} else if err := sqlDB.PingContext(r.Context()); err != nil {
		services["database"] = "error: " + err.Error()
		status = "degraded"
	} else {
		services["database"] = "ok"
	}

	if h.redis == nil {
		services["redis"] = "not configured"
	} else if err := h.redis.Ping(r.Context()).Err(); err != nil {
		services["redis"] = "error: " + err.Error()
		status = "degraded"
	} else {
		services["redis"] = "ok"
	}

	code := http.StatusOK
	if status != "healthy" {
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, healthResponse{
		Status:    status,
		Timestamp: time.Now().UTC(),
		Services:  services,
	})
}

// Ready handles GET /ready. It only checks the database; redis being
// down degrades caching but the service can still serve.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(r.Context())
	}
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
