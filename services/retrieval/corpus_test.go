package retrieval

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCorpus(t *testing.T) {
	path := filepath.Join(t.TempDir(), "embeddings.jsonl")
	content := `{"doc_id":"d1","text":"nutrisi trimester pertama"}
not valid json
{"doc_id":"d2","text":"tanda bahaya kehamilan"}
{"doc_id":"d3","text":""}
{"doc_id":"d4","text":"persiapan persalinan"}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	corpus, err := LoadCorpus(path)
	require.NoError(t, err)
	require.Len(t, corpus, 3, "malformed and empty lines are skipped")
	assert.Equal(t, "d1", corpus[0].SourceID)
	assert.Equal(t, "persiapan persalinan", corpus[2].Text)
}

func TestLoadCorpus_MissingFile(t *testing.T) {
	corpus, err := LoadCorpus(filepath.Join(t.TempDir(), "absent.jsonl"))
	require.NoError(t, err)
	assert.Empty(t, corpus)
}
