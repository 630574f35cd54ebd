package retrieval

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PGVectorStore queries a pgvector-backed chunk table.
type PGVectorStore struct {
	pool  *pgxpool.Pool
	table string
}

// NewPGVectorStore connects to PostgreSQL and verifies reachability.
func NewPGVectorStore(ctx context.Context, connString, table string) (*PGVectorStore, error) {
	if table == "" {
		table = "pregcare_chunks"
	}

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("create pgvector pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgvector ping: %w", err)
	}

	return &PGVectorStore{pool: pool, table: table}, nil
}

// Query returns the k nearest chunks by cosine distance.
func (s *PGVectorStore) Query(ctx context.Context, queryEmbedding []float32, k int) ([]RetrievedChunk, error) {
	// The table name comes from configuration, not user input.
	sql := fmt.Sprintf(
		`SELECT text, source_id, 1 - (embedding <=> $1::vector) AS score
		 FROM %s
		 ORDER BY embedding <=> $1::vector
		 LIMIT $2`, s.table)

	rows, err := s.pool.Query(ctx, sql, vectorLiteral(queryEmbedding), k)
	if err != nil {
		return nil, fmt.Errorf("pgvector query: %w", err)
	}
	defer rows.Close()

	var chunks []RetrievedChunk
	for rows.Next() {
		var c RetrievedChunk
		if err := rows.Scan(&c.Text, &c.SourceID, &c.Score); err != nil {
			return nil, fmt.Errorf("scan chunk row: %w", err)
		}
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunk rows: %w", err)
	}
	return chunks, nil
}

// Close releases the connection pool.
func (s *PGVectorStore) Close() {
	s.pool.Close()
}

// vectorLiteral renders an embedding in pgvector's input format.
func vectorLiteral(v []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(f), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}
