package chat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/pregcare/rag-service/services/generation"
	"github.com/pregcare/rag-service/services/memory"
	"github.com/pregcare/rag-service/services/retrieval"
	"github.com/pregcare/rag-service/services/safety"
)

// fakeCache is an exact-match map cache recording Set calls.
type fakeCache struct {
	entries map[string]string
	sets    []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]string)}
}

func (c *fakeCache) Get(_ context.Context, query string) (string, float64, bool) {
	answer, ok := c.entries[query]
	if !ok {
		return "", 0, false
	}
	return answer, 1.0, true
}

func (c *fakeCache) Set(_ context.Context, query, answer string, _ float64) {
	c.entries[query] = answer
	c.sets = append(c.sets, query)
}

type fakeRetriever struct {
	chunks []retrieval.RetrievedChunk
}

func (r *fakeRetriever) Retrieve(_ context.Context, _ string) []retrieval.RetrievedChunk {
	return r.chunks
}

func (r *fakeRetriever) BuildContext(chunks []retrieval.RetrievedChunk) string {
	if len(chunks) == 0 {
		return ""
	}
	return "konteks dokumen"
}

type fakeGenerator struct {
	answer  string
	prompts []string
}

func (g *fakeGenerator) Generate(_ context.Context, prompt string) string {
	g.prompts = append(g.prompts, prompt)
	return g.answer
}

func newTestService(t *testing.T, cache Cache, gen Generator) (*Service, *memory.Registry) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	sessions := memory.NewRegistry(100, 10, logger)
	retriever := &fakeRetriever{chunks: []retrieval.RetrievedChunk{
		{Text: "dok satu", SourceID: "d1"},
		{Text: "dok dua", SourceID: "d2"},
	}}
	svc := NewService(cache, safety.NewGate(logger), retriever, gen, sessions, nil, logger)
	return svc, sessions
}

func TestService_Answer_GeneratesAndCaches(t *testing.T) {
	cache := newFakeCache()
	gen := &fakeGenerator{answer: "jawaban yang dihasilkan"}
	svc, sessions := newTestService(t, cache, gen)

	question := "makanan sehat untuk ibu hamil"
	result := svc.Answer(context.Background(), "sesi-1", question)

	assert.Equal(t, "jawaban yang dihasilkan", result.Answer)
	assert.False(t, result.Cached)
	assert.Equal(t, 2, result.SourcesCount)
	assert.Equal(t, []string{question}, cache.sets)

	history, ok := sessions.Peek("sesi-1")
	require.True(t, ok)
	require.Equal(t, 1, history.Len())
	assert.Equal(t, question, history.Exchanges()[0].Question)
}

func TestService_Answer_CacheHitSkipsPipeline(t *testing.T) {
	cache := newFakeCache()
	gen := &fakeGenerator{answer: "jawaban baru"}
	svc, sessions := newTestService(t, cache, gen)

	question := "makanan sehat untuk ibu hamil"
	first := svc.Answer(context.Background(), "sesi-1", question)
	require.False(t, first.Cached)

	second := svc.Answer(context.Background(), "sesi-1", question)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Answer, second.Answer)
	assert.Zero(t, second.SourcesCount)
	assert.Len(t, gen.prompts, 1, "generator is not called on a cache hit")

	history, _ := sessions.Peek("sesi-1")
	assert.Equal(t, 2, history.Len(), "cache hits still record a memory entry")
}

func TestService_Answer_SafetyRejection(t *testing.T) {
	cache := newFakeCache()
	gen := &fakeGenerator{answer: "tidak boleh sampai ke sini"}
	svc, sessions := newTestService(t, cache, gen)

	result := svc.Answer(context.Background(), "sesi-1", "siapa presiden indonesia")

	assert.Equal(t, safety.RefusalMessage, result.Answer)
	assert.False(t, result.Cached)
	assert.Zero(t, result.SourcesCount)
	assert.Empty(t, gen.prompts, "rejected questions never reach the generator")
	assert.Empty(t, cache.sets, "refusals are not cached")

	history, ok := sessions.Peek("sesi-1")
	require.True(t, ok)
	require.Equal(t, 1, history.Len())
	assert.Equal(t, safety.RefusalMessage, history.Exchanges()[0].Answer)
}

func TestService_Answer_ApologyIsCached(t *testing.T) {
	cache := newFakeCache()
	gen := &fakeGenerator{answer: generation.ApologyBusy}
	svc, _ := newTestService(t, cache, gen)

	question := "vitamin untuk trimester pertama"
	result := svc.Answer(context.Background(), "sesi-1", question)

	assert.Equal(t, generation.ApologyBusy, result.Answer)
	assert.Equal(t, generation.ApologyBusy, cache.entries[question])
}

func TestService_Answer_DefaultSession(t *testing.T) {
	svc, sessions := newTestService(t, newFakeCache(), &fakeGenerator{answer: "jawaban"})

	svc.Answer(context.Background(), "", "makanan sehat untuk ibu hamil")

	_, ok := sessions.Peek(DefaultSessionID)
	assert.True(t, ok)
}

func TestService_Answer_NilCache(t *testing.T) {
	logger := zaptest.NewLogger(t)
	sessions := memory.NewRegistry(100, 10, logger)
	svc := NewService(nil, safety.NewGate(logger), &fakeRetriever{}, &fakeGenerator{answer: "jawaban"}, sessions, nil, logger)

	result := svc.Answer(context.Background(), "sesi-1", "makanan sehat untuk ibu hamil")
	assert.Equal(t, "jawaban", result.Answer)
	assert.Zero(t, result.SourcesCount)
}

func TestService_Answer_PromptIncludesPriorHistory(t *testing.T) {
	gen := &fakeGenerator{answer: "jawaban"}
	svc, _ := newTestService(t, newFakeCache(), gen)

	svc.Answer(context.Background(), "sesi-1", "makanan sehat untuk ibu hamil")
	svc.Answer(context.Background(), "sesi-1", "vitamin apa yang bagus untuk janin")

	require.Len(t, gen.prompts, 2)
	assert.NotContains(t, gen.prompts[0], "RIWAYAT PERCAKAPAN")
	assert.Contains(t, gen.prompts[1], "makanan sehat untuk ibu hamil")
	assert.NotContains(t, gen.prompts[1], "vitamin apa yang bagus untuk janin\nA", "the current exchange is not part of the transcript")
}

func TestService_HistoryAndClear(t *testing.T) {
	svc, _ := newTestService(t, newFakeCache(), &fakeGenerator{answer: "jawaban"})

	assert.Nil(t, svc.History("belum-ada"), "lookups never create sessions")

	svc.Answer(context.Background(), "sesi-1", "makanan sehat untuk ibu hamil")
	require.Len(t, svc.History("sesi-1"), 1)

	svc.ClearHistory("sesi-1")
	assert.Empty(t, svc.History("sesi-1"))
}
