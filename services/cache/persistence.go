package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// PersistedEntry is the durable form of a cache entry. Embeddings are
// never persisted; they are recomputed from the query text on load.
type PersistedEntry struct {
	OriginalQuery string    `json:"original_query"`
	Answer        string    `json:"answer"`
	CreatedAt     time.Time `json:"created_at"`
	ResponseTime  float64   `json:"response_time"`
	HitCount      int       `json:"hit_count"`
}

// PersistedStats carries aggregate counters across restarts.
type PersistedStats struct {
	Hits           uint64  `json:"hits"`
	Misses         uint64  `json:"misses"`
	TotalQueries   uint64  `json:"total_queries"`
	TotalSavedTime float64 `json:"total_saved_time"`
}

// Snapshot is a full dump of the cache's text contents plus stats.
type Snapshot struct {
	Entries []PersistedEntry `json:"entries"`
	Stats   PersistedStats   `json:"stats"`
}

// SnapshotStore persists cache snapshots.
type SnapshotStore interface {
	Save(snapshot Snapshot) error
	Load() (Snapshot, error)
}

// FileStore writes snapshots as a single JSON document. Writes go
// through a temp file and rename so a crash never leaves a torn file.
type FileStore struct {
	path string
}

// NewFileStore creates a FileStore at path, creating parent directories.
func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &FileStore{path: path}, nil
}

// Save writes the snapshot atomically.
func (s *FileStore) Save(snapshot Snapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal cache snapshot: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write cache snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace cache snapshot: %w", err)
	}
	return nil
}

// Load reads the last snapshot. A missing file yields an empty snapshot.
func (s *FileStore) Load() (Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Snapshot{}, nil
		}
		return Snapshot{}, fmt.Errorf("read cache snapshot: %w", err)
	}
	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return Snapshot{}, fmt.Errorf("unmarshal cache snapshot: %w", err)
	}
	return snapshot, nil
}
