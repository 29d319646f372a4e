package ingest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/vouch/internal/embedding"
	"github.com/ppiankov/vouch/internal/index"
	"github.com/ppiankov/vouch/internal/model"
	"github.com/ppiankov/vouch/internal/worker"
)

// DuplicateThreshold is the similarity at which a quote counts as already stored
const DuplicateThreshold = 0.98

const storeConcurrency = 4

// recordNamespace seeds deterministic record ids
var recordNamespace = uuid.MustParse("6f1c8a52-3b7e-4d1a-9c55-2f0e8b9d7a41")

// RecordID derives a quote's index id from its source, assumption and text.
// Different files never share ids, and re-ingesting a file rewrites the
// same records.
func RecordID(source, assumptionID, text string) string {
	return uuid.NewSHA1(recordNamespace, []byte(source+"\x00"+assumptionID+"\x00"+text)).String()
}

// StoreResult counts what happened to each quote
type StoreResult struct {
	Stored     int
	Duplicates int
	Failed     int
}

// Store embeds quotes and upserts them into the interview namespace
type Store struct {
	embedder      embedding.Embedder
	index         index.Index
	namespace     string
	dedupe        bool
	dedupeTimeout time.Duration
	embedPolicy   worker.Policy
	upsertPolicy  worker.Policy
}

// NewStore creates a store writing to namespace. Embedding and upsert calls
// are retried per retrieval's retry settings, each attempt under its own
// timeout.
func NewStore(e embedding.Embedder, idx index.Index, namespace string, retrieval model.RetrievalConfig, dedupe bool) *Store {
	return &Store{
		embedder:      e,
		index:         idx,
		namespace:     namespace,
		dedupe:        dedupe,
		dedupeTimeout: retrieval.DedupeTimeout,
		embedPolicy: worker.Policy{
			MaxRetries: retrieval.MaxRetries,
			BaseDelay:  retrieval.RetryBaseDelay,
			Timeout:    retrieval.EmbedTimeout,
		},
		upsertPolicy: worker.Policy{
			MaxRetries: retrieval.MaxRetries,
			BaseDelay:  retrieval.RetryBaseDelay,
			Timeout:    retrieval.UpsertTimeout,
		},
	}
}

// Store embeds every quote in parallel, skips near-exact duplicates found
// by a best-effort lookup, and upserts the rest in one call. A quote that
// fails to embed is counted as failed and skipped. Cancellation of ctx and
// upsert failure return an error.
func (s *Store) Store(ctx context.Context, quotes []model.Quote, log zerolog.Logger) (StoreResult, error) {
	var (
		mu      sync.Mutex
		records = make([]index.Record, 0, len(quotes))
		res     StoreResult
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(storeConcurrency)

	for _, q := range quotes {
		q := q
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			vec, err := worker.Retry(gctx, s.embedPolicy, func(ctx context.Context) ([]float32, error) {
				return s.embedder.Embed(ctx, q.Text)
			})
			if err != nil {
				if cerr := gctx.Err(); cerr != nil {
					return cerr
				}
				log.Warn().Err(err).Str("quoteId", q.ID).Msg("embedding failed, quote not indexed")
				mu.Lock()
				res.Failed++
				mu.Unlock()
				return nil
			}

			if s.isDuplicate(gctx, q, vec) {
				mu.Lock()
				res.Duplicates++
				mu.Unlock()
				return nil
			}

			mu.Lock()
			records = append(records, index.Record{ID: q.ID, Vector: vec, Metadata: q.Metadata()})
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		res.Failed = len(quotes) - res.Duplicates
		return res, fmt.Errorf("embed quotes: %w", err)
	}

	if len(records) == 0 {
		return res, nil
	}
	_, err := worker.Retry(ctx, s.upsertPolicy, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.index.Upsert(ctx, s.namespace, records)
	})
	if err != nil {
		res.Failed += len(records)
		return res, fmt.Errorf("upsert %d quotes: %w", len(records), err)
	}
	res.Stored = len(records)
	return res, nil
}

// isDuplicate looks up the namespace for another record of the same
// assumption scoring at least DuplicateThreshold. Lookup errors and
// timeouts never block the upsert.
func (s *Store) isDuplicate(ctx context.Context, q model.Quote, vec []float32) bool {
	if !s.dedupe {
		return false
	}
	if s.dedupeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.dedupeTimeout)
		defer cancel()
	}

	matches, err := s.index.Query(ctx, s.namespace, vec, 1, map[string]string{"assumption_id": q.AssumptionID})
	if err != nil || len(matches) == 0 {
		return false
	}
	return matches[0].ID != q.ID && matches[0].Score >= DuplicateThreshold
}
