package index

import (
	"context"
	"sync"

	"github.com/ppiankov/vouch/internal/vector"
)

// MemoryIndex is an in-process index using brute-force cosine similarity
type MemoryIndex struct {
	mu         sync.RWMutex
	namespaces map[string]map[string]Record
}

// NewMemoryIndex creates an empty in-memory index
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{namespaces: make(map[string]map[string]Record)}
}

// Upsert stores records in namespace
func (m *MemoryIndex) Upsert(ctx context.Context, namespace string, records []Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	ns, ok := m.namespaces[namespace]
	if !ok {
		ns = make(map[string]Record)
		m.namespaces[namespace] = ns
	}
	for _, r := range records {
		vec := make([]float32, len(r.Vector))
		copy(vec, r.Vector)
		ns[r.ID] = Record{ID: r.ID, Vector: vec, Metadata: copyMetadata(r.Metadata)}
	}
	return nil
}

// Query scans namespace and returns the closest matches
func (m *MemoryIndex) Query(ctx context.Context, namespace string, vec []float32, topK int, filter map[string]string) ([]Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var matches []Match
	for _, r := range m.namespaces[namespace] {
		if !matchesFilter(r.Metadata, filter) {
			continue
		}
		matches = append(matches, Match{
			ID:       r.ID,
			Score:    vector.Cosine(vec, r.Vector),
			Metadata: copyMetadata(r.Metadata),
		})
	}
	return topMatches(matches, topK), nil
}

// Len returns the number of records in namespace
func (m *MemoryIndex) Len(namespace string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.namespaces[namespace])
}

// Close is a no-op
func (m *MemoryIndex) Close() error {
	return nil
}
