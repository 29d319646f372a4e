package index

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ppiankov/vouch/internal/vector"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS vectors (
	namespace   TEXT NOT NULL,
	id          TEXT NOT NULL,
	vector      BLOB NOT NULL,
	metadata    TEXT NOT NULL,
	created_at  TEXT NOT NULL,
	PRIMARY KEY (namespace, id)
);
`

// SQLiteIndex stores vectors as float32 blobs in a local SQLite file and
// scores them by brute-force cosine similarity. Metadata filters are
// evaluated in SQL with json_extract.
type SQLiteIndex struct {
	db *sql.DB
}

// NewSQLiteIndex opens (or creates) the database at path
func NewSQLiteIndex(path string) (*SQLiteIndex, error) {
	if path != ":memory:" && path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create index dir: %w", err)
		}
	}
	if path == "" {
		path = ":memory:"
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if path == ":memory:" {
		// Each connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pragma busy_timeout: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &SQLiteIndex{db: db}, nil
}

// Upsert writes records in one transaction
func (s *SQLiteIndex) Upsert(ctx context.Context, namespace string, records []Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO vectors (namespace, id, vector, metadata, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(namespace, id) DO UPDATE SET
			vector = excluded.vector,
			metadata = excluded.metadata`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, r := range records {
		md, err := json.Marshal(r.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata for %s: %w", r.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, namespace, r.ID, vector.Encode(r.Vector), string(md), now); err != nil {
			return fmt.Errorf("upsert %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Query scores every record in namespace passing the filter
func (s *SQLiteIndex) Query(ctx context.Context, namespace string, vec []float32, topK int, filter map[string]string) ([]Match, error) {
	query := "SELECT id, vector, metadata FROM vectors WHERE namespace = ?"
	args := []any{namespace}
	for k, v := range filter {
		query += " AND json_extract(metadata, ?) = ?"
		args = append(args, jsonPath(k), v)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query vectors: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var matches []Match
	for rows.Next() {
		var (
			id     string
			blob   []byte
			mdJSON string
		)
		if err := rows.Scan(&id, &blob, &mdJSON); err != nil {
			return nil, fmt.Errorf("scan vector: %w", err)
		}
		stored, err := vector.Decode(blob)
		if err != nil {
			return nil, fmt.Errorf("decode vector %s: %w", id, err)
		}
		md := make(map[string]string)
		if err := json.Unmarshal([]byte(mdJSON), &md); err != nil {
			return nil, fmt.Errorf("decode metadata %s: %w", id, err)
		}
		matches = append(matches, Match{ID: id, Score: vector.Cosine(vec, stored), Metadata: md})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return topMatches(matches, topK), nil
}

// Close closes the database
func (s *SQLiteIndex) Close() error {
	return s.db.Close()
}

// jsonPath quotes a metadata key as a JSON path member
func jsonPath(key string) string {
	return `$."` + strings.ReplaceAll(key, `"`, `\"`) + `"`
}
