package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pregcare/rag-service/app"
	"github.com/pregcare/rag-service/models"
	"github.com/pregcare/rag-service/utils"
)

// GetHistoryHandler returns a session's conversation history.
func GetHistoryHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "sessionID")

		exchanges := deps.Chat.History(sessionID)
		items := make([]models.HistoryItem, 0, len(exchanges))
		for _, ex := range exchanges {
			items = append(items, models.HistoryItem{
				Question:  ex.Question,
				Answer:    ex.Answer,
				Timestamp: models.NewTimestamp(ex.Timestamp),
			})
		}

		_ = utils.WriteJSON(w, http.StatusOK, models.HistoryResponse{
			History: items,
			Count:   len(items),
		})
	}
}

// ClearHistoryHandler resets a session's conversation history.
func ClearHistoryHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "sessionID")
		deps.Chat.ClearHistory(sessionID)
		_ = utils.WriteJSON(w, http.StatusOK, map[string]string{
			"status":  "success",
			"message": "History cleared for session " + sessionID,
		})
	}
}
