// Package ingest turns uploaded interview transcripts into classified
// quotes: extract text, chunk, extract quotes per target, classify,
// store, and aggregate outcomes across files.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ppiankov/vouch/internal/extract"
	"github.com/ppiankov/vouch/internal/llm"
	"github.com/ppiankov/vouch/internal/logging"
	"github.com/ppiankov/vouch/internal/metrics"
	"github.com/ppiankov/vouch/internal/model"
	"github.com/ppiankov/vouch/internal/worker"
)

const (
	ModeAssumptions = "assumptions"
	ModeTopics      = "topics"
)

// Pipeline runs batch ingestion. It holds no per-batch state.
type Pipeline struct {
	registry   *extract.Registry
	extractor  *extract.QuoteExtractor
	classifier *Classifier
	store      *Store
	cfg        model.IngestionConfig
	metrics    *metrics.Metrics
	log        zerolog.Logger
}

// NewPipeline wires the ingestion stages around provider. A nil store
// skips indexing; quotes are still returned in the batch.
func NewPipeline(provider llm.Provider, store *Store, cfg model.IngestionConfig, m *metrics.Metrics) *Pipeline {
	if m == nil {
		m = metrics.DefaultMetrics
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 5
	}
	p := &Pipeline{
		registry:  extract.NewRegistry(),
		extractor: extract.NewQuoteExtractor(provider, cfg),
		store:     store,
		cfg:       cfg,
		metrics:   m,
		log:       logging.WithComponent("ingest"),
	}
	p.classifier = NewClassifier(provider, cfg.ClassifyBatchSize, p.retryPolicy("classify"))
	return p
}

// Ingest processes files concurrently and aggregates their quotes by
// assumption. With no assumptions it extracts per fixed topic instead.
// When the batch deadline passes, completed per-file results are still
// returned. Only a malformed assumption list is an error.
func (p *Pipeline) Ingest(ctx context.Context, files []model.TranscriptFile, assumptions []model.Assumption) (*model.IngestionBatch, error) {
	targets, mode, err := p.targets(assumptions)
	if err != nil {
		return nil, err
	}

	batch := &model.IngestionBatch{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Mode:      mode,
	}

	if p.cfg.BatchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.BatchTimeout)
		defer cancel()
	}

	p.log.Info().
		Str("batchId", batch.ID).
		Int("files", len(files)).
		Int("targets", len(targets)).
		Str("mode", mode).
		Msg("ingestion started")

	proc := &fileProcessor{pipeline: p, batchID: batch.ID, targets: targets}
	results := worker.NewBatchProcessor(proc, p.cfg.Concurrency).ProcessFiles(ctx, files)

	batch.Files = make([]model.FileResult, len(results))
	for i, r := range results {
		batch.Files[i] = *r
		p.metrics.FilesProcessed.WithLabelValues(string(r.Status)).Inc()
	}

	ids := make([]string, len(targets))
	for i, t := range targets {
		ids[i] = t.AssumptionID
	}
	batch.AggregatedQuotes, batch.Outcomes = collect(batch.Files, ids)
	batch.TimedOut = errors.Is(ctx.Err(), context.DeadlineExceeded)
	batch.Elapsed = time.Since(batch.StartedAt)

	p.log.Info().
		Str("batchId", batch.ID).
		Int("completed", batch.CountByStatus(model.FileCompleted)).
		Int("failed", batch.CountByStatus(model.FileFailed)).
		Int("quotes", batch.TotalQuotes()).
		Bool("timedOut", batch.TimedOut).
		Dur("elapsed", batch.Elapsed).
		Msg("ingestion finished")

	return batch, nil
}

// targets validates assumptions or falls back to topic mode
func (p *Pipeline) targets(assumptions []model.Assumption) ([]extract.Target, string, error) {
	if len(assumptions) > 0 {
		targets := make([]extract.Target, 0, len(assumptions))
		seen := make(map[string]bool, len(assumptions))
		for i, a := range assumptions {
			if a.ID == "" || len(a.Text) < 5 {
				return nil, "", fmt.Errorf("%w: assumption %d needs an id and text", model.ErrInvalidAssumptions, i)
			}
			if seen[a.ID] {
				return nil, "", fmt.Errorf("%w: duplicate id %q", model.ErrInvalidAssumptions, a.ID)
			}
			seen[a.ID] = true
			targets = append(targets, extract.Target{AssumptionID: a.ID, Attribute: a.AttributeType, Text: a.Text})
		}
		return targets, ModeAssumptions, nil
	}

	attrs := model.AllAttributeTypes
	if len(p.cfg.Topics) > 0 {
		attrs = make([]model.AttributeType, 0, len(p.cfg.Topics))
		for _, name := range p.cfg.Topics {
			t, ok := model.ParseAttributeType(name)
			if !ok {
				return nil, "", fmt.Errorf("%w: unknown topic %q", model.ErrInvalidAssumptions, name)
			}
			attrs = append(attrs, t)
		}
	}

	targets := make([]extract.Target, len(attrs))
	for i, t := range attrs {
		targets[i] = extract.Target{
			AssumptionID: model.TopicAssumptionID(t),
			Attribute:    t,
			Text:         "what interviewees say about " + t.DisplayName(),
		}
	}
	return targets, ModeTopics, nil
}

// retryPolicy wraps every completion call: per-attempt timeout, linear
// backoff, and retries for transient service errors and malformed output
func (p *Pipeline) retryPolicy(operation string) worker.Policy {
	return worker.Policy{
		MaxRetries: p.cfg.MaxRetries,
		BaseDelay:  p.cfg.RetryBaseDelay,
		Timeout:    p.cfg.CompletionTimeout,
		IsRetryable: func(err error) bool {
			return llm.IsRetryable(err) ||
				errors.Is(err, extract.ErrMalformed) ||
				errors.Is(err, ErrMalformedClassification)
		},
		OnRetry: func(attempt int, err error) {
			p.metrics.Retries.WithLabelValues(operation).Inc()
			p.log.Debug().Err(err).Str("operation", operation).Int("attempt", attempt).Msg("retrying")
		},
	}
}
