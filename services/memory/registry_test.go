package memory

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestRegistry_GetCreatesOnFirstUse(t *testing.T) {
	r := NewRegistry(10, 5, zaptest.NewLogger(t))

	h := r.Get("sesi-1")
	require.NotNil(t, h)
	assert.Equal(t, 1, r.Len())

	h.Add("halo", "hai")
	assert.Equal(t, 1, r.Get("sesi-1").Len(), "same session returns the same history")
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_PeekDoesNotCreate(t *testing.T) {
	r := NewRegistry(10, 5, zaptest.NewLogger(t))

	_, ok := r.Peek("tidak-ada")
	assert.False(t, ok)
	assert.Zero(t, r.Len())

	r.Get("sesi-1")
	h, ok := r.Peek("sesi-1")
	assert.True(t, ok)
	assert.NotNil(t, h)
}

func TestRegistry_EvictsLeastRecentlyUsed(t *testing.T) {
	r := NewRegistry(3, 5, zaptest.NewLogger(t))
	for i := 1; i <= 3; i++ {
		r.Get(fmt.Sprintf("sesi-%d", i))
	}

	// Touch sesi-1 so sesi-2 becomes the eviction candidate.
	r.Get("sesi-1")
	r.Get("sesi-4")

	assert.Equal(t, 3, r.Len())
	_, ok := r.Peek("sesi-2")
	assert.False(t, ok, "least-recently-used session is evicted")
	for _, id := range []string{"sesi-1", "sesi-3", "sesi-4"} {
		_, ok := r.Peek(id)
		assert.True(t, ok, id)
	}
}

func TestRegistry_EvictionDropsHistory(t *testing.T) {
	r := NewRegistry(1, 5, zaptest.NewLogger(t))

	r.Get("sesi-1").Add("pertanyaan", "jawaban")
	r.Get("sesi-2")

	// Re-creating the evicted session starts with a fresh history.
	assert.Zero(t, r.Get("sesi-1").Len())
}
