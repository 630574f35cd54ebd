package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/pregcare/rag-service/app"
	"github.com/pregcare/rag-service/models"
	"github.com/pregcare/rag-service/utils"
)

// ChatHandler answers a question through the RAG pipeline.
func ChatHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			_ = utils.WriteBadRequest(w, "invalid request body", nil)
			return
		}

		if err := utils.ValidateStruct(req); err != nil {
			var validationErr *utils.ValidationError
			if errors.As(err, &validationErr) {
				details := make(map[string]interface{}, len(validationErr.Fields))
				for k, v := range validationErr.Fields {
					details[k] = v
				}
				_ = utils.WriteBadRequest(w, validationErr.Message, details)
				return
			}
			_ = utils.WriteBadRequest(w, err.Error(), nil)
			return
		}

		result := deps.Chat.Answer(r.Context(), req.SessionID, req.Message)

		resp := models.ChatResponse{
			Answer:       result.Answer,
			ResponseTime: result.ResponseTime,
			Cached:       result.Cached,
			SourcesCount: result.SourcesCount,
			Timestamp:    models.NewTimestamp(result.Timestamp),
		}
		if err := utils.WriteJSON(w, http.StatusOK, resp); err != nil {
			deps.Logger.Error("failed to write chat response", zap.Error(err))
		}
	}
}
