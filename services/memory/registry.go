package memory

import (
	"container/list"
	"sync"

	"go.uber.org/zap"
)

// Registry is the process-wide session table. Each session owns one
// History, created on first reference. The table is bounded: once
// maxSessions is reached, the least-recently-used session is evicted
// along with its history.
type Registry struct {
	mu          sync.Mutex
	sessions    map[string]*registryEntry
	lruList     *list.List // front = most recently used
	maxSessions int
	maxHistory  int
	logger      *zap.Logger
}

type registryEntry struct {
	history *History
	element *list.Element
}

// NewRegistry creates a Registry bounded at maxSessions, with each
// session's history bounded at maxHistory exchanges.
func NewRegistry(maxSessions, maxHistory int, logger *zap.Logger) *Registry {
	if maxSessions <= 0 {
		maxSessions = 1000
	}
	return &Registry{
		sessions:    make(map[string]*registryEntry),
		lruList:     list.New(),
		maxSessions: maxSessions,
		maxHistory:  maxHistory,
		logger:      logger,
	}
}

// Get returns the History for sessionID, creating it on first use.
// Access counts as recent use for eviction purposes.
func (r *Registry) Get(sessionID string) *History {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry, ok := r.sessions[sessionID]; ok {
		r.lruList.MoveToFront(entry.element)
		return entry.history
	}

	if r.lruList.Len() >= r.maxSessions {
		r.evictLRU()
	}

	entry := &registryEntry{history: NewHistory(r.maxHistory)}
	entry.element = r.lruList.PushFront(sessionID)
	r.sessions[sessionID] = entry
	return entry.history
}

// Peek returns the History for sessionID without creating one.
func (r *Registry) Peek(sessionID string) (*History, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.sessions[sessionID]
	if !ok {
		return nil, false
	}
	return entry.history, true
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// evictLRU drops the least-recently-used session. Must be called with the lock held.
func (r *Registry) evictLRU() {
	back := r.lruList.Back()
	if back == nil {
		return
	}
	sessionID := back.Value.(string)
	r.lruList.Remove(back)
	delete(r.sessions, sessionID)
	r.logger.Info("evicted least-recently-used session", zap.String("session_id", sessionID))
}
