package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"
)

// DefaultDimensions matches the all-MiniLM-L6-v2 sentence transformer.
const DefaultDimensions = 384

// Encoder maps text to a fixed-dimension vector for similarity comparison.
type Encoder interface {
	Encode(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

// Config holds HTTP encoder configuration.
type Config struct {
	BaseURL    string
	Model      string
	Dimensions int
	Timeout    time.Duration
}

// HTTPEncoder calls an external embedding server.
type HTTPEncoder struct {
	config     Config
	httpClient *http.Client
}

type embedRequest struct {
	Model string `json:"model,omitempty"`
	Text  string `json:"text"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// NewHTTPEncoder creates an encoder backed by an embedding HTTP service.
func NewHTTPEncoder(config Config) *HTTPEncoder {
	if config.Dimensions == 0 {
		config.Dimensions = DefaultDimensions
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	return &HTTPEncoder{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
	}
}

// Encode requests an embedding vector for text.
func (e *HTTPEncoder) Encode(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(embedRequest{Model: e.config.Model, Text: text})
	if err != nil {
		return nil, fmt.Errorf("marshal embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.config.BaseURL+"/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding service request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read embed response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding service returned status %d", resp.StatusCode)
	}

	var parsed embedResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal embed response: %w", err)
	}
	if len(parsed.Embedding) != e.config.Dimensions {
		return nil, fmt.Errorf("embedding dimension mismatch: got %d, want %d", len(parsed.Embedding), e.config.Dimensions)
	}

	return parsed.Embedding, nil
}

// Dimensions returns the vector size produced by this encoder.
func (e *HTTPEncoder) Dimensions() int {
	return e.config.Dimensions
}

// Cosine computes the cosine similarity between two vectors.
// Returns 0 for mismatched lengths or zero vectors.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
