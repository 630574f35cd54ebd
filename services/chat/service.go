package chat

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pregcare/rag-service/internal/notify"
	"github.com/pregcare/rag-service/services/generation"
	"github.com/pregcare/rag-service/services/memory"
	"github.com/pregcare/rag-service/services/retrieval"
	"github.com/pregcare/rag-service/services/safety"
)

// DefaultSessionID is used when a request carries no session id.
const DefaultSessionID = "default_user"

// Cache is the semantic answer cache as the orchestrator sees it.
type Cache interface {
	Get(ctx context.Context, query string) (answer string, score float64, ok bool)
	Set(ctx context.Context, query, answer string, responseTime float64)
}

// Retriever fetches supporting chunks and assembles the context block.
type Retriever interface {
	Retrieve(ctx context.Context, question string) []retrieval.RetrievedChunk
	BuildContext(chunks []retrieval.RetrievedChunk) string
}

// Generator produces an answer for a prompt. It always returns text,
// falling back to an apology internally.
type Generator interface {
	Generate(ctx context.Context, prompt string) string
}

// Gate decides whether a question is in-domain.
type Gate interface {
	Check(question string) safety.Decision
}

// Result is the terminal outcome of one pipeline run.
type Result struct {
	Answer       string
	ResponseTime float64
	Cached       bool
	SourcesCount int
	Timestamp    time.Time
}

// Service composes the answer pipeline: cache check, safety gate,
// retrieval with fallback, prompt assembly, resilient generation,
// and cache/memory persistence. Every terminal path writes exactly
// one conversation memory entry and always yields an answer string.
type Service struct {
	cache      Cache
	gate       Gate
	retriever  Retriever
	generator  Generator
	sessions   *memory.Registry
	dispatcher *notify.Dispatcher
	logger     *zap.Logger
}

// NewService wires the pipeline. cache and dispatcher may be nil.
func NewService(
	cache Cache,
	gate Gate,
	retriever Retriever,
	generator Generator,
	sessions *memory.Registry,
	dispatcher *notify.Dispatcher,
	logger *zap.Logger,
) *Service {
	return &Service{
		cache:      cache,
		gate:       gate,
		retriever:  retriever,
		generator:  generator,
		sessions:   sessions,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Answer runs the full pipeline for one question.
func (s *Service) Answer(ctx context.Context, sessionID, question string) Result {
	start := time.Now()
	if sessionID == "" {
		sessionID = DefaultSessionID
	}
	requestID := uuid.New().String()
	history := s.sessions.Get(sessionID)

	s.logger.Info("processing question",
		zap.String("request_id", requestID),
		zap.String("session_id", sessionID))

	// Cache check runs before anything expensive.
	if s.cache != nil {
		if answer, score, ok := s.cache.Get(ctx, question); ok {
			s.logger.Info("answered from cache",
				zap.String("request_id", requestID),
				zap.Float64("similarity", score))
			history.Add(question, answer)
			s.publish(notify.EventAnswerDelivered, sessionID, question, true)
			return s.result(answer, start, true, 0)
		}
	}

	// Safety gate short-circuits with the fixed refusal text. The
	// refusal is recorded in memory but never written to the cache.
	if decision := s.gate.Check(question); !decision.Allowed {
		s.logger.Info("question rejected",
			zap.String("request_id", requestID),
			zap.String("reason", decision.Reason))
		history.Add(question, safety.RefusalMessage)
		s.publish(notify.EventSafetyRejected, sessionID, question, false)
		return s.result(safety.RefusalMessage, start, false, 0)
	}

	chunks := s.retriever.Retrieve(ctx, question)
	docContext := s.retriever.BuildContext(chunks)

	// Read the history context before this exchange is recorded.
	prompt := generation.BuildPrompt(history.Context(), docContext, question)

	answer := s.generator.Generate(ctx, prompt)
	elapsed := time.Since(start).Seconds()

	// Writes happen only once the result is fully obtained. Apology
	// answers are cached too, so an immediately repeated failing
	// prompt does not retrigger retries until the entry expires.
	history.Add(question, answer)
	if s.cache != nil {
		s.cache.Set(ctx, question, answer, elapsed)
	}

	s.logger.Info("answer generated",
		zap.String("request_id", requestID),
		zap.Float64("elapsed_seconds", elapsed),
		zap.Int("sources", len(chunks)))
	s.publish(notify.EventAnswerDelivered, sessionID, question, false)
	return s.result(answer, start, false, len(chunks))
}

// History returns a copy of the session's retained exchanges without
// creating the session as a side effect.
func (s *Service) History(sessionID string) []memory.Exchange {
	if sessionID == "" {
		sessionID = DefaultSessionID
	}
	history, ok := s.sessions.Peek(sessionID)
	if !ok {
		return nil
	}
	return history.Exchanges()
}

// ClearHistory resets the session's conversation memory.
func (s *Service) ClearHistory(sessionID string) {
	if sessionID == "" {
		sessionID = DefaultSessionID
	}
	if history, ok := s.sessions.Peek(sessionID); ok {
		history.Clear()
	}
}

func (s *Service) publish(eventType notify.EventType, sessionID, question string, cached bool) {
	if s.dispatcher == nil {
		return
	}
	s.dispatcher.Publish(notify.Event{
		Type:      eventType,
		SessionID: sessionID,
		Question:  question,
		Cached:    cached,
		Timestamp: time.Now(),
	})
}

func (s *Service) result(answer string, start time.Time, cached bool, sources int) Result {
	return Result{
		Answer:       answer,
		ResponseTime: time.Since(start).Seconds(),
		Cached:       cached,
		SourcesCount: sources,
		Timestamp:    time.Now(),
	}
}
