package index

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// PostgresIndex stores vectors in a pgvector column. Scores are cosine
// similarity (1 - cosine distance); metadata filters use JSONB containment.
type PostgresIndex struct {
	pool *pgxpool.Pool
}

// NewPostgresIndex connects to dsn and ensures the schema exists
func NewPostgresIndex(ctx context.Context, dsn string, dimension int) (*PostgresIndex, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}

	idx := &PostgresIndex{pool: pool}
	if err := idx.ensureSchema(ctx, dimension); err != nil {
		pool.Close()
		return nil, err
	}
	return idx, nil
}

func (p *PostgresIndex) ensureSchema(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("embedding dimension must be positive")
	}

	stmts := []string{
		"CREATE EXTENSION IF NOT EXISTS vector",
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS vouch_vectors (
			namespace  TEXT NOT NULL,
			id         TEXT NOT NULL,
			embedding  VECTOR(%d) NOT NULL,
			metadata   JSONB NOT NULL DEFAULT '{}'::jsonb,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (namespace, id)
		)`, dimension),
		"CREATE INDEX IF NOT EXISTS idx_vouch_vectors_embedding ON vouch_vectors USING hnsw (embedding vector_cosine_ops)",
		"CREATE INDEX IF NOT EXISTS idx_vouch_vectors_metadata ON vouch_vectors USING gin (metadata jsonb_path_ops)",
	}

	for _, stmt := range stmts {
		if _, err := p.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("execute schema statement: %w", err)
		}
	}
	return nil
}

// Upsert writes records in one batch
func (p *PostgresIndex) Upsert(ctx context.Context, namespace string, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, r := range records {
		md, err := json.Marshal(r.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata for %s: %w", r.ID, err)
		}
		batch.Queue(`
			INSERT INTO vouch_vectors (namespace, id, embedding, metadata)
			VALUES ($1, $2, $3::vector, $4::jsonb)
			ON CONFLICT (namespace, id) DO UPDATE SET
				embedding = EXCLUDED.embedding,
				metadata = EXCLUDED.metadata`,
			namespace, r.ID, pgvector.NewVector(r.Vector), string(md))
	}

	results := p.pool.SendBatch(ctx, batch)
	defer func() { _ = results.Close() }()

	for _, r := range records {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("upsert %s: %w", r.ID, err)
		}
	}
	return nil
}

// Query returns the nearest records by cosine distance
func (p *PostgresIndex) Query(ctx context.Context, namespace string, vec []float32, topK int, filter map[string]string) ([]Match, error) {
	if len(vec) == 0 {
		return nil, fmt.Errorf("embedding is empty")
	}
	if topK <= 0 {
		topK = 5
	}
	if filter == nil {
		filter = map[string]string{}
	}
	filterJSON, err := json.Marshal(filter)
	if err != nil {
		return nil, fmt.Errorf("marshal filter: %w", err)
	}

	rows, err := p.pool.Query(ctx, `
		SELECT id, metadata, (embedding <=> $1::vector) AS distance
		FROM vouch_vectors
		WHERE namespace = $2 AND metadata @> $3::jsonb
		ORDER BY embedding <=> $1::vector, id
		LIMIT $4`,
		pgvector.NewVector(vec), namespace, string(filterJSON), topK)
	if err != nil {
		return nil, fmt.Errorf("query similar vectors: %w", err)
	}
	defer rows.Close()

	matches := make([]Match, 0, topK)
	for rows.Next() {
		var (
			m        Match
			mdRaw    []byte
			distance float64
		)
		if err := rows.Scan(&m.ID, &mdRaw, &distance); err != nil {
			return nil, fmt.Errorf("scan similar vector: %w", err)
		}
		m.Metadata = make(map[string]string)
		if err := json.Unmarshal(mdRaw, &m.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata %s: %w", m.ID, err)
		}
		m.Score = 1 - distance
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return matches, nil
}

// Close releases the connection pool
func (p *PostgresIndex) Close() error {
	p.pool.Close()
	return nil
}
