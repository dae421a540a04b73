package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/hugh/leadhub/internal/api/dto"
	"github.com/hugh/leadhub/internal/database/models"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	statsCacheKey = "leadhub:dashboard:stats"
	statsCacheTTL = 60 * time.Second
)

type DashboardHandler struct {
	db     *gorm.DB
	cache  *redis.Client
	logger *slog.Logger
}

func NewDashboardHandler(db *gorm.DB, cache *redis.Client, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{db: db, cache: cache, logger: logger}
}

// DashboardStats aggregates pipeline counts for the dashboard view
type DashboardStats struct {
	TotalLeads   int64            `json:"totalLeads"`
	AverageScore float64          `json:"averageScore"`
	ByStatus     map[string]int64 `json:"byStatus"`
	BySource     map[string]int64 `json:"bySource"`
	ByPriority   map[string]int64 `json:"byPriority"`
	Unassigned   int64            `json:"unassigned"`
	CreatedToday int64            `json:"createdToday"`
	RecentLeads  []models.Lead    `json:"recentLeads"`
	GeneratedAt  time.Time        `json:"generatedAt"`
}

// Stats handles GET /api/v1/dashboard/stats
func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if h.cache != nil {
		if cached, err := h.cache.Get(r.Context(), statsCacheKey).Result(); err == nil {
			var stats DashboardStats
			if err := json.Unmarshal([]byte(cached), &stats); err == nil {
				writeJSON(w, http.StatusOK, stats)
				return
			}
		}
	}

	stats, err := h.computeStats(r)
	if err != nil {
		h.logger.Error("failed to compute dashboard stats", "error", err)
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to compute stats"})
		return
	}

	if h.cache != nil {
		if payload, err := json.Marshal(stats); err == nil {
			if err := h.cache.Set(r.Context(), statsCacheKey, payload, statsCacheTTL).Err(); err != nil {
				h.logger.Warn("failed to cache dashboard stats", "error", err)
			}
		}
	}

	writeJSON(w, http.StatusOK, stats)
}

type groupCount struct {
	Key   string
	Count int64
}

func (h *DashboardHandler) computeStats(r *http.Request) (*DashboardStats, error) {
	db := h.db.WithContext(r.Context())
	stats := &DashboardStats{
		ByStatus:    make(map[string]int64),
		BySource:    make(map[string]int64),
		ByPriority:  make(map[string]int64),
		GeneratedAt: time.Now().UTC(),
	}

	if err := db.Model(&models.Lead{}).Count(&stats.TotalLeads).Error; err != nil {
		return nil, err
	}

	if stats.TotalLeads > 0 {
		if err := db.Model(&models.Lead{}).
			Select("COALESCE(AVG(lead_score), 0)").
			Scan(&stats.AverageScore).Error; err != nil {
			return nil, err
		}
	}

	for _, group := range []struct {
		column string
		dest   map[string]int64
	}{
		{"status", stats.ByStatus},
		{"source", stats.BySource},
		{"priority", stats.ByPriority},
	} {
		var rows []groupCount
		if err := db.Model(&models.Lead{}).
			Select(group.column + " AS key, COUNT(*) AS count").
			Group(group.column).
			Scan(&rows).Error; err != nil {
			return nil, err
		}
		for _, row := range rows {
			group.dest[row.Key] = row.Count
		}
	}

	if err := db.Model(&models.Lead{}).
		Where("assigned_to IS NULL").
		Count(&stats.Unassigned).Error; err != nil {
		return nil, err
	}

	startOfDay := time.Now().UTC().Truncate(24 * time.Hour)
	if err := db.Model(&models.Lead{}).
		Where("created_at >= ?", startOfDay).
		Count(&stats.CreatedToday).Error; err != nil {
		return nil, err
	}

	stats.RecentLeads = []models.Lead{}
	if err := db.Order("created_at DESC").Limit(5).Find(&stats.RecentLeads).Error; err != nil {
		return nil, err
	}

	return stats, nil
}
