package models

import "time"

// ChatRequest is the inbound payload for the chat endpoint.
type ChatRequest struct {
	Message   string `json:"message" validate:"required,min=1,max=5000"`
	SessionID string `json:"session_id" validate:"omitempty,max=128"`
}

// ChatResponse is the outbound payload for the chat endpoint.
type ChatResponse struct {
	Answer       string  `json:"answer"`
	ResponseTime float64 `json:"response_time"`
	Cached       bool    `json:"cached"`
	SourcesCount int     `json:"sources_count"`
	Timestamp    string  `json:"timestamp"`
}

// HistoryItem is a single question/answer exchange as exposed by the history API.
type HistoryItem struct {
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	Timestamp string `json:"timestamp"`
}

// HistoryResponse wraps a session's conversation history.
type HistoryResponse struct {
	History []HistoryItem `json:"history"`
	Count   int           `json:"count"`
}

// StatsResponse reports semantic cache counters.
type StatsResponse struct {
	Hits               uint64  `json:"hits"`
	Misses             uint64  `json:"misses"`
	HitRate            float64 `json:"hit_rate"`
	TotalSavedTime     float64 `json:"total_saved_time"`
	EstimatedCostSaved float64 `json:"estimated_cost_saved"`
	TotalQueries       uint64  `json:"total_queries"`
}

// StatusResponse reports service readiness.
type StatusResponse struct {
	Status         string `json:"status"`
	Message        string `json:"message"`
	RAGReady       bool   `json:"rag_ready"`
	CacheEnabled   bool   `json:"cache_enabled"`
	LocalDocsCount int    `json:"local_docs_count"`
}

// NewTimestamp formats t the way the API exposes timestamps.
func NewTimestamp(t time.Time) string {
	return t.Format(time.RFC3339)
}
