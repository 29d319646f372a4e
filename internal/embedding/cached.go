package embedding

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/ppiankov/vouch/internal/cache"
	"github.com/ppiankov/vouch/internal/logging"
	"github.com/ppiankov/vouch/internal/metrics"
	"github.com/ppiankov/vouch/internal/vector"
)

// CachedEmbedder memoizes another Embedder. Cache failures degrade to a
// direct call and are never surfaced.
type CachedEmbedder struct {
	inner   Embedder
	cache   cache.Cache
	ttl     time.Duration
	metrics *metrics.Metrics
	log     zerolog.Logger
}

// NewCachedEmbedder wraps inner with c. A nil cache returns inner unchanged.
func NewCachedEmbedder(inner Embedder, c cache.Cache, ttl time.Duration, m *metrics.Metrics) Embedder {
	if c == nil {
		return inner
	}
	if m == nil {
		m = metrics.DefaultMetrics
	}
	return &CachedEmbedder{
		inner:   inner,
		cache:   c,
		ttl:     ttl,
		metrics: m,
		log:     logging.WithComponent("embedding.cache"),
	}
}

// Model returns the wrapped model name
func (e *CachedEmbedder) Model() string {
	return e.inner.Model()
}

// Embed returns the cached vector or computes and stores it
func (e *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := cache.EmbeddingKey(e.inner.Model(), text)

	if raw, ok := e.cache.Get(key); ok {
		if vec, err := vector.Decode(raw); err == nil && len(vec) > 0 {
			e.metrics.CacheLookups.WithLabelValues("hit").Inc()
			return vec, nil
		}
		_ = e.cache.Delete(key)
	}
	e.metrics.CacheLookups.WithLabelValues("miss").Inc()

	vec, err := e.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if err := e.cache.Set(key, vector.Encode(vec), e.ttl); err != nil {
		e.log.Warn().Err(err).Msg("embedding cache write failed")
	}
	return vec, nil
}
