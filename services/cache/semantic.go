package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pregcare/rag-service/services/embedding"
)

const (
	// sweepEvery controls how often Get runs the lazy TTL sweep.
	sweepEvery = 10

	// savedTimePerHit is the estimated generation time avoided per cache hit.
	savedTimePerHit = 3.0

	// costSavedPerHit is the rough per-call cost estimate used for stats.
	costSavedPerHit = 0.0001
)

// Entry is a single cached question/answer pair.
type Entry struct {
	QueryText    string
	AnswerText   string
	Embedding    []float32
	CreatedAt    time.Time
	LastHitAt    time.Time
	HitCount     int
	ResponseTime float64
}

// Config holds semantic cache tuning parameters.
type Config struct {
	SimilarityThreshold float64
	MaxSize             int
	TTL                 time.Duration

	// MaxEncodeFailures is the number of consecutive encoder failures
	// after which the cache flips to permanent-miss mode.
	MaxEncodeFailures int
}

// DefaultConfig returns the production cache settings.
func DefaultConfig() Config {
	return Config{
		SimilarityThreshold: 0.85,
		MaxSize:             100,
		TTL:                 24 * time.Hour,
		MaxEncodeFailures:   3,
	}
}

// SemanticCache stores generated answers keyed by question embedding.
// Lookups match approximately via cosine similarity against every live
// entry; eviction is strictly oldest-by-insertion. Thread-safe behind a
// single mutex; the cache is small and bounded so O(n) scans are fine.
type SemanticCache struct {
	mu      sync.Mutex
	config  Config
	encoder embedding.Encoder
	store   SnapshotStore
	logger  *zap.Logger

	// entries is kept in insertion order; byHash guards idempotent inserts.
	entries []*Entry
	byHash  map[string]*Entry

	hits           uint64
	misses         uint64
	totalQueries   uint64
	totalSavedTime float64

	encodeFailures int
	disabled       bool
}

// Stats is a point-in-time view of cache counters. HitRate is a
// percentage, 0 to 100.
type Stats struct {
	Hits               uint64
	Misses             uint64
	TotalQueries       uint64
	HitRate            float64
	TotalSavedTime     float64
	EstimatedCostSaved float64
	Size               int
	MaxSize            int
}

// New creates a SemanticCache. store may be nil to disable persistence.
func New(config Config, encoder embedding.Encoder, store SnapshotStore, logger *zap.Logger) *SemanticCache {
	if config.MaxEncodeFailures <= 0 {
		config.MaxEncodeFailures = 3
	}
	return &SemanticCache{
		config:  config,
		encoder: encoder,
		store:   store,
		logger:  logger,
		byHash:  make(map[string]*Entry),
	}
}

func hashQuery(query string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(query))))
	return hex.EncodeToString(sum[:])
}

func (c *SemanticCache) isExpired(e *Entry, now time.Time) bool {
	return now.Sub(e.CreatedAt) > c.config.TTL
}

// Get returns the cached answer most similar to query, if its cosine
// similarity reaches the threshold. A hit bumps the entry's hit counter
// and last-access time but does not change eviction order. A miss has
// no side effects beyond counters.
func (c *SemanticCache) Get(ctx context.Context, query string) (string, float64, bool) {
	c.mu.Lock()
	c.totalQueries++
	if c.totalQueries%sweepEvery == 0 {
		c.sweepExpired(time.Now())
	}
	if c.disabled || len(c.entries) == 0 {
		c.misses++
		c.mu.Unlock()
		return "", 0, false
	}
	live := make([]*Entry, len(c.entries))
	copy(live, c.entries)
	c.mu.Unlock()

	queryEmbedding, err := c.encoder.Encode(ctx, query)
	if err != nil {
		c.recordEncodeFailure(err)
		return "", 0, false
	}
	c.resetEncodeFailures()

	now := time.Now()
	var best *Entry
	bestScore := -1.0
	for _, e := range live {
		if c.isExpired(e, now) {
			continue
		}
		score := embedding.Cosine(queryEmbedding, e.Embedding)
		if score > bestScore {
			bestScore = score
			best = e
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if best == nil || bestScore < c.config.SimilarityThreshold {
		c.misses++
		return "", 0, false
	}

	c.hits++
	c.totalSavedTime += savedTimePerHit
	best.HitCount++
	best.LastHitAt = now

	c.logger.Debug("semantic cache hit",
		zap.Float64("similarity", bestScore),
		zap.String("matched_query", truncate(best.QueryText, 50)))

	return best.AnswerText, bestScore, true
}

// Set caches the answer for query. Inserting the same normalized query
// text twice is a no-op; at capacity the single oldest-inserted entry
// is evicted first. The snapshot store, when configured, receives a
// full snapshot after every insert.
func (c *SemanticCache) Set(ctx context.Context, query, answer string, responseTime float64) {
	c.mu.Lock()
	if c.disabled {
		c.mu.Unlock()
		return
	}
	hash := hashQuery(query)
	if _, exists := c.byHash[hash]; exists {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	queryEmbedding, err := c.encoder.Encode(ctx, query)
	if err != nil {
		c.recordEncodeFailure(err)
		return
	}
	c.resetEncodeFailures()

	c.mu.Lock()
	// Re-check after encoding: a concurrent Set may have won the race.
	if _, exists := c.byHash[hash]; exists {
		c.mu.Unlock()
		return
	}
	if len(c.entries) >= c.config.MaxSize {
		c.evictOldest()
	}

	now := time.Now()
	entry := &Entry{
		QueryText:    query,
		AnswerText:   answer,
		Embedding:    queryEmbedding,
		CreatedAt:    now,
		LastHitAt:    now,
		ResponseTime: responseTime,
	}
	c.entries = append(c.entries, entry)
	c.byHash[hash] = entry
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	if c.store != nil {
		if err := c.store.Save(snapshot); err != nil {
			c.logger.Warn("cache snapshot write failed", zap.Error(err))
		}
	}
}

// Load restores persisted entries, recomputing every embedding through
// the encoder. Expired entries are skipped. Best-effort: failures are
// logged and the cache stays usable in memory.
func (c *SemanticCache) Load(ctx context.Context) int {
	if c.store == nil {
		return 0
	}
	snapshot, err := c.store.Load()
	if err != nil {
		c.logger.Warn("cache snapshot load failed", zap.Error(err))
		return 0
	}

	now := time.Now()
	loaded := 0
	for _, p := range snapshot.Entries {
		if now.Sub(p.CreatedAt) > c.config.TTL {
			continue
		}
		emb, err := c.encoder.Encode(ctx, p.OriginalQuery)
		if err != nil {
			c.logger.Warn("skipping cache entry, re-encode failed",
				zap.String("query", truncate(p.OriginalQuery, 50)), zap.Error(err))
			continue
		}

		c.mu.Lock()
		hash := hashQuery(p.OriginalQuery)
		if _, exists := c.byHash[hash]; !exists && len(c.entries) < c.config.MaxSize {
			entry := &Entry{
				QueryText:    p.OriginalQuery,
				AnswerText:   p.Answer,
				Embedding:    emb,
				CreatedAt:    p.CreatedAt,
				LastHitAt:    p.CreatedAt,
				HitCount:     p.HitCount,
				ResponseTime: p.ResponseTime,
			}
			c.entries = append(c.entries, entry)
			c.byHash[hash] = entry
			loaded++
		}
		c.mu.Unlock()
	}

	c.mu.Lock()
	c.hits = snapshot.Stats.Hits
	c.misses = snapshot.Stats.Misses
	c.totalQueries = snapshot.Stats.TotalQueries
	c.totalSavedTime = snapshot.Stats.TotalSavedTime
	c.mu.Unlock()

	c.logger.Info("semantic cache restored", zap.Int("entries", loaded))
	return loaded
}

// Snapshot writes the current contents to the snapshot store, if any.
func (c *SemanticCache) Snapshot() {
	if c.store == nil {
		return
	}
	c.mu.Lock()
	snapshot := c.snapshotLocked()
	c.mu.Unlock()
	if err := c.store.Save(snapshot); err != nil {
		c.logger.Warn("cache snapshot write failed", zap.Error(err))
	}
}

// Clear drops all entries and resets counters.
func (c *SemanticCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = nil
	c.byHash = make(map[string]*Entry)
	c.hits = 0
	c.misses = 0
	c.totalQueries = 0
	c.totalSavedTime = 0
}

// Size returns the number of live entries.
func (c *SemanticCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Enabled reports whether the cache is still matching. False once the
// encoder has been declared unavailable.
func (c *SemanticCache) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.disabled
}

// Stats returns current cache counters.
func (c *SemanticCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.hits + c.misses
	hitRate := 0.0
	if total > 0 {
		hitRate = float64(c.hits) / float64(total) * 100
	}
	return Stats{
		Hits:               c.hits,
		Misses:             c.misses,
		TotalQueries:       c.totalQueries,
		HitRate:            hitRate,
		TotalSavedTime:     c.totalSavedTime,
		EstimatedCostSaved: float64(c.hits) * costSavedPerHit,
		Size:               len(c.entries),
		MaxSize:            c.config.MaxSize,
	}
}

// snapshotLocked builds the persisted form of the current contents.
// Embeddings are left out; Load recomputes them. Must be called with
// the lock held.
func (c *SemanticCache) snapshotLocked() Snapshot {
	entries := make([]PersistedEntry, 0, len(c.entries))
	for _, e := range c.entries {
		entries = append(entries, PersistedEntry{
			OriginalQuery: e.QueryText,
			Answer:        e.AnswerText,
			CreatedAt:     e.CreatedAt,
			ResponseTime:  e.ResponseTime,
			HitCount:      e.HitCount,
		})
	}
	return Snapshot{
		Entries: entries,
		Stats: PersistedStats{
			Hits:           c.hits,
			Misses:         c.misses,
			TotalQueries:   c.totalQueries,
			TotalSavedTime: c.totalSavedTime,
		},
	}
}

// sweepExpired removes entries older than TTL. Must be called with the lock held.
func (c *SemanticCache) sweepExpired(now time.Time) {
	kept := c.entries[:0]
	removed := 0
	for _, e := range c.entries {
		if c.isExpired(e, now) {
			delete(c.byHash, hashQuery(e.QueryText))
			removed++
			continue
		}
		kept = append(kept, e)
	}
	c.entries = kept
	if removed > 0 {
		c.logger.Debug("evicted expired cache entries", zap.Int("count", removed))
	}
}

// evictOldest drops the oldest-by-insertion entry. Must be called with the lock held.
func (c *SemanticCache) evictOldest() {
	if len(c.entries) == 0 {
		return
	}
	oldest := c.entries[0]
	c.entries = c.entries[1:]
	delete(c.byHash, hashQuery(oldest.QueryText))
}

func (c *SemanticCache) recordEncodeFailure(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.misses++
	c.encodeFailures++
	if c.encodeFailures >= c.config.MaxEncodeFailures && !c.disabled {
		c.disabled = true
		c.logger.Error("encoder unavailable, semantic cache disabled", zap.Error(err))
		return
	}
	c.logger.Warn("query encode failed, counting as miss", zap.Error(err))
}

func (c *SemanticCache) resetEncodeFailures() {
	c.mu.Lock()
	c.encodeFailures = 0
	c.mu.Unlock()
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
