package retrieval

import (
	"context"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/pregcare/rag-service/services/embedding"
)

const (
	// DefaultTopK is the number of chunks requested per question.
	DefaultTopK = 5

	// DefaultMaxContextChars bounds the assembled context block.
	DefaultMaxContextChars = 18000

	chunkSeparator = "\n\n---\n\n"
)

// RetrievedChunk is the canonical shape for a supporting text chunk.
// Store adapters normalize into this at the retrieval boundary.
type RetrievedChunk struct {
	Text     string
	SourceID string
	Score    float64
}

// Store is a vector-backed knowledge store.
type Store interface {
	Query(ctx context.Context, queryEmbedding []float32, k int) ([]RetrievedChunk, error)
}

// Config holds retriever tuning parameters.
type Config struct {
	TopK            int
	MaxContextChars int
}

// Service fetches ranked supporting chunks for a question, degrading to
// a static local corpus when the primary store is unavailable or empty.
type Service struct {
	config  Config
	store   Store // nil when the vector store is unconfigured
	encoder embedding.Encoder
	corpus  []RetrievedChunk
	logger  *zap.Logger
}

// NewService creates a retriever. store may be nil; corpus is the
// fallback document set loaded at startup.
func NewService(config Config, store Store, encoder embedding.Encoder, corpus []RetrievedChunk, logger *zap.Logger) *Service {
	if config.TopK <= 0 {
		config.TopK = DefaultTopK
	}
	if config.MaxContextChars <= 0 {
		config.MaxContextChars = DefaultMaxContextChars
	}
	return &Service{
		config:  config,
		store:   store,
		encoder: encoder,
		corpus:  corpus,
		logger:  logger,
	}
}

// Retrieve returns the top-K chunks for question. The local-corpus
// fallback takes the first K items as-is, without re-ranking against
// the query. That is a known quality trade-off carried over from the
// original system, kept pending a product decision.
func (s *Service) Retrieve(ctx context.Context, question string) []RetrievedChunk {
	if s.store == nil {
		return s.fallback("vector store unconfigured")
	}

	queryEmbedding, err := s.encoder.Encode(ctx, question)
	if err != nil {
		s.logger.Warn("question encode failed, using local corpus", zap.Error(err))
		return s.fallback("encode failed")
	}

	chunks, err := s.store.Query(ctx, queryEmbedding, s.config.TopK)
	if err != nil {
		s.logger.Warn("vector store query failed, using local corpus", zap.Error(err))
		return s.fallback("store query failed")
	}
	if len(chunks) == 0 {
		return s.fallback("store returned no chunks")
	}

	s.logger.Debug("retrieved chunks from vector store", zap.Int("count", len(chunks)))
	return chunks
}

func (s *Service) fallback(reason string) []RetrievedChunk {
	k := s.config.TopK
	if k > len(s.corpus) {
		k = len(s.corpus)
	}
	s.logger.Info("retrieval degraded to local corpus",
		zap.String("reason", reason),
		zap.Int("chunks", k))
	return s.corpus[:k]
}

// CorpusSize returns the number of fallback documents loaded.
func (s *Service) CorpusSize() int {
	return len(s.corpus)
}

// BuildContext joins chunk texts with separators and hard-truncates to
// the character budget, keeping the tail so the latest-appearing chunks
// survive.
func (s *Service) BuildContext(chunks []RetrievedChunk) string {
	pieces := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if t := strings.TrimSpace(c.Text); t != "" {
			pieces = append(pieces, t)
		}
	}
	ctx := strings.Join(pieces, chunkSeparator)
	if len(ctx) > s.config.MaxContextChars {
		cut := len(ctx) - s.config.MaxContextChars
		// Advance past any rune straddling the cut so the kept tail
		// stays valid UTF-8.
		for cut < len(ctx) && !utf8.RuneStart(ctx[cut]) {
			cut++
		}
		ctx = ctx[cut:]
	}
	return ctx
}
