package handlers

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/propmatch/internal/index"
	"github.com/propmatch/internal/store"
)

// StatsSource provides store row counts
type StatsSource interface {
	GetStats(ctx context.Context) (store.Stats, error)
}

// IndexStatsSource provides index cache occupancy
type IndexStatsSource interface {
	GetStats() index.Stats
}

// APIHandler serves health and stats endpoints
type APIHandler struct {
	Store StatsSource
	Cache IndexStatsSource
	Log   zerolog.Logger
}

// Health handles GET /api/health
func (h *APIHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// statsResponse combines store and cache statistics
type statsResponse struct {
	Store store.Stats `json:"store"`
	Index index.Stats `json:"index"`
}

// Stats handles GET /api/stats
func (h *APIHandler) Stats(w http.ResponseWriter, r *http.Request) {
	storeStats, err := h.Store.GetStats(r.Context())
	if err != nil {
		h.Log.Error().Err(err).Msg("failed to load store stats")
		writeError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}

	writeJSON(w, http.StatusOK, statsResponse{
		Store: storeStats,
		Index: h.Cache.GetStats(),
	})
}
