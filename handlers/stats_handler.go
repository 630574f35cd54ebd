package handlers

import (
	"net/http"

	"github.com/pregcare/rag-service/app"
	"github.com/pregcare/rag-service/models"
	"github.com/pregcare/rag-service/utils"
)

// StatsHandler reports semantic cache counters.
func StatsHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Cache == nil {
			_ = utils.WriteServiceUnavailable(w, "cache not enabled")
			return
		}

		stats := deps.Cache.Stats()
		_ = utils.WriteJSON(w, http.StatusOK, models.StatsResponse{
			Hits:               stats.Hits,
			Misses:             stats.Misses,
			HitRate:            stats.HitRate,
			TotalSavedTime:     stats.TotalSavedTime,
			EstimatedCostSaved: stats.EstimatedCostSaved,
			TotalQueries:       stats.TotalQueries,
		})
	}
}
