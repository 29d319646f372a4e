package retrieve

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ppiankov/vouch/internal/embedding"
	"github.com/ppiankov/vouch/internal/index"
	"github.com/ppiankov/vouch/internal/logging"
	"github.com/ppiankov/vouch/internal/metrics"
	"github.com/ppiankov/vouch/internal/model"
	"github.com/ppiankov/vouch/internal/worker"
)

// Retriever fetches candidate quotes for one assumption
type Retriever struct {
	embedder    embedding.Embedder
	index       index.Index
	cfg         model.RetrievalConfig
	metrics     *metrics.Metrics
	log         zerolog.Logger
	embedPolicy worker.Policy
	queryPolicy worker.Policy
}

// NewRetriever creates a retriever. Nil metrics fall back to the default registry.
func NewRetriever(e embedding.Embedder, idx index.Index, cfg model.RetrievalConfig, m *metrics.Metrics) *Retriever {
	if cfg.CandidateMultiplier <= 0 {
		cfg.CandidateMultiplier = 5
	}
	if m == nil {
		m = metrics.DefaultMetrics
	}
	r := &Retriever{
		embedder: e,
		index:    idx,
		cfg:      cfg,
		metrics:  m,
		log:      logging.WithComponent("retrieve"),
	}
	r.embedPolicy = r.policy("embed_query", cfg.EmbedTimeout)
	r.queryPolicy = r.policy("index_query", cfg.QueryTimeout)
	return r
}

func (r *Retriever) policy(operation string, timeout time.Duration) worker.Policy {
	return worker.Policy{
		MaxRetries: r.cfg.MaxRetries,
		BaseDelay:  r.cfg.RetryBaseDelay,
		Timeout:    timeout,
		OnRetry: func(attempt int, err error) {
			r.metrics.Retries.WithLabelValues(operation).Inc()
			r.log.Debug().Err(err).Int("attempt", attempt).Str("operation", operation).Msg("retrying")
		},
	}
}

// Retrieve embeds query and returns up to k × CandidateMultiplier quotes
// stored for assumptionID in namespace. Failures are logged and yield an
// empty candidate set; they never abort the caller.
func (r *Retriever) Retrieve(ctx context.Context, assumptionID string, k int, query, namespace string) []model.Quote {
	quotes, err := r.fetch(ctx, assumptionID, k, query, namespace)
	if err != nil {
		r.metrics.RetrievalFailures.Inc()
		r.log.Warn().
			Err(err).
			Str("assumptionId", assumptionID).
			Str("namespace", namespace).
			Msg("retrieval failed, treating as no evidence")
		return []model.Quote{}
	}
	r.metrics.CandidatesFetched.Observe(float64(len(quotes)))
	return quotes
}

func (r *Retriever) fetch(ctx context.Context, assumptionID string, k int, query, namespace string) ([]model.Quote, error) {
	if r.embedder == nil || r.index == nil {
		return nil, fmt.Errorf("%w: embedder or index not configured", model.ErrRetrieval)
	}
	if k <= 0 {
		k = 5
	}

	vec, err := worker.Retry(ctx, r.embedPolicy, func(ctx context.Context) ([]float32, error) {
		return r.embedder.Embed(ctx, query)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %v", model.ErrRetrieval, err)
	}

	filter := map[string]string{"assumption_id": assumptionID}
	matches, err := worker.Retry(ctx, r.queryPolicy, func(ctx context.Context) ([]index.Match, error) {
		return r.index.Query(ctx, namespace, vec, k*r.cfg.CandidateMultiplier, filter)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: query index: %v", model.ErrRetrieval, err)
	}

	quotes := make([]model.Quote, 0, len(matches))
	for _, m := range matches {
		q := model.QuoteFromMetadata(m.ID, m.Metadata, m.Score)
		q.Namespace = namespace
		quotes = append(quotes, q)
	}
	return quotes, nil
}
