package handlers

import (
	"net/http"

	"github.com/pregcare/rag-service/app"
	"github.com/pregcare/rag-service/models"
	"github.com/pregcare/rag-service/utils"
)

// HealthCheck reports process liveness.
func HealthCheck(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// StatusHandler reports pipeline readiness and corpus/cache state.
func StatusHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cacheEnabled := deps.Cache != nil && deps.Cache.Enabled()
		_ = utils.WriteJSON(w, http.StatusOK, models.StatusResponse{
			Status:         "online",
			Message:        "RAG API is running",
			RAGReady:       deps.Chat != nil,
			CacheEnabled:   cacheEnabled,
			LocalDocsCount: deps.Retriever.CorpusSize(),
		})
	}
}
