// Package index provides namespace-scoped vector similarity search.
package index

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ppiankov/vouch/internal/model"
)

// Record is one stored vector with its metadata
type Record struct {
	ID       string
	Vector   []float32
	Metadata map[string]string
}

// Match is one query hit. Score is a similarity where higher is closer;
// identical vectors score 1.
type Match struct {
	ID       string
	Score    float64
	Metadata map[string]string
}

// Index is a vector store partitioned into namespaces. Records are
// append-only facts: upserting an existing id replaces it (last writer wins).
type Index interface {
	Upsert(ctx context.Context, namespace string, records []Record) error

	// Query returns up to topK matches ordered by descending score. Every
	// filter entry must equal the record's metadata value.
	Query(ctx context.Context, namespace string, vec []float32, topK int, filter map[string]string) ([]Match, error)

	Close() error
}

// New opens the backend selected by cfg
func New(ctx context.Context, cfg model.IndexConfig, dimension int) (Index, error) {
	switch strings.ToLower(cfg.Backend) {
	case "memory", "":
		return NewMemoryIndex(), nil
	case "sqlite":
		return NewSQLiteIndex(cfg.SQLitePath)
	case "postgres", "pgvector":
		if cfg.DSN == "" {
			return nil, fmt.Errorf("postgres index selected but no DSN set (VOUCH_DATABASE_URL)")
		}
		return NewPostgresIndex(ctx, cfg.DSN, dimension)
	default:
		return nil, fmt.Errorf("unknown index backend: %s (supported: memory, sqlite, postgres)", cfg.Backend)
	}
}

func matchesFilter(md, filter map[string]string) bool {
	for k, v := range filter {
		if md[k] != v {
			return false
		}
	}
	return true
}

// topMatches sorts by score (then id for stability) and truncates
func topMatches(matches []Match, topK int) []Match {
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].ID < matches[j].ID
	})
	if topK > 0 && len(matches) > topK {
		matches = matches[:topK]
	}
	return matches
}

func copyMetadata(md map[string]string) map[string]string {
	out := make(map[string]string, len(md))
	for k, v := range md {
		out[k] = v
	}
	return out
}
