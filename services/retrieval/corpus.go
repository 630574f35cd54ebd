package retrieval

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
)

type corpusLine struct {
	DocID string `json:"doc_id"`
	Text  string `json:"text"`
}

// LoadCorpus reads the fallback document set from a JSONL file, one
// document per line. Malformed lines are skipped. A missing file yields
// an empty corpus rather than an error; retrieval then degrades to
// returning nothing, which the generator tolerates.
func LoadCorpus(path string) ([]RetrievedChunk, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open corpus file: %w", err)
	}
	defer f.Close()

	var corpus []RetrievedChunk
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var line corpusLine
		if err := json.Unmarshal(scanner.Bytes(), &line); err != nil {
			continue
		}
		if line.Text == "" {
			continue
		}
		corpus = append(corpus, RetrievedChunk{Text: line.Text, SourceID: line.DocID})
	}
	if err := scanner.Err(); err != nil {
		return corpus, fmt.Errorf("read corpus file: %w", err)
	}
	return corpus, nil
}
