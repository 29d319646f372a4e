package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/ppiankov/vouch/internal/extract"
	"github.com/ppiankov/vouch/internal/logging"
	"github.com/ppiankov/vouch/internal/model"
	"github.com/ppiankov/vouch/internal/worker"
)

// fileProcessor runs one file through the per-file state machine:
// pending → extracting → classifying → completed, or failed.
type fileProcessor struct {
	pipeline *Pipeline
	batchID  string
	targets  []extract.Target
}

// ProcessFile never returns nil; failures are reported in the result
func (fp *fileProcessor) ProcessFile(ctx context.Context, file model.TranscriptFile) *model.FileResult {
	p := fp.pipeline
	log := logging.WithFile(fp.batchID, file.Name)
	start := time.Now()

	res := &model.FileResult{
		Name:   file.Name,
		Status: model.FilePending,
		Quotes: []model.Quote{},
		Counts: map[string]int{},
	}
	fail := func(err error) *model.FileResult {
		res.Status = model.FileFailed
		res.Error = fmt.Sprintf("%v: %v", model.ErrFileFailure, err)
		res.Quotes = []model.Quote{}
		res.QuoteCount = 0
		res.Elapsed = time.Since(start)
		log.Warn().Err(err).Msg("file failed")
		return res
	}

	if err := ctx.Err(); err != nil {
		return fail(fmt.Errorf("batch deadline reached before processing: %w", err))
	}

	// Extracting
	res.Status = model.FileExtracting
	text, err := p.registry.Extract(file)
	if err != nil {
		return fail(err)
	}
	chunks := extract.Chunk(text, p.cfg.ChunkSize, p.cfg.MinChunkLength)
	res.Chunks = len(chunks)

	extracted := make(map[string][]model.Quote, len(fp.targets))
	seen := make(map[string]map[string]bool, len(fp.targets))
	attempts, failures := 0, 0
	policy := p.retryPolicy("extract")

	for ci, chunk := range chunks {
		for _, target := range fp.targets {
			if ctx.Err() != nil {
				break
			}
			attempts++
			out, err := worker.Retry(ctx, policy, func(ctx context.Context) (extract.Result, error) {
				return p.extractor.Extract(ctx, chunk, target)
			})
			if err != nil {
				failures++
				res.FailedChunks++
				p.metrics.ChunksFailed.Inc()
				log.Warn().
					Err(err).
					Int("chunk", ci).
					Str("assumptionId", target.AssumptionID).
					Msg("quote extraction failed, chunk contributes no quotes")
				continue
			}

			res.DroppedCount += out.Dropped
			p.metrics.QuotesDropped.WithLabelValues("threshold").Add(float64(out.Dropped))
			if seen[target.AssumptionID] == nil {
				seen[target.AssumptionID] = map[string]bool{}
			}
			for _, q := range out.Quotes {
				if seen[target.AssumptionID][q.Text] {
					res.DroppedCount++
					p.metrics.QuotesDropped.WithLabelValues("duplicate").Inc()
					continue
				}
				seen[target.AssumptionID][q.Text] = true
				q.Source = file.Name
				q.ID = RecordID(file.Name, q.AssumptionID, q.Text)
				extracted[target.AssumptionID] = append(extracted[target.AssumptionID], q)
			}
		}
	}

	if attempts > 0 && failures == attempts {
		return fail(fmt.Errorf("%w: all %d extraction calls failed", model.ErrExtraction, attempts))
	}
	if err := ctx.Err(); err != nil && len(extracted) == 0 {
		return fail(fmt.Errorf("batch deadline reached during extraction: %w", err))
	}

	// Classifying
	res.Status = model.FileClassifying
	for _, target := range fp.targets {
		qs := extracted[target.AssumptionID]
		if len(qs) == 0 {
			continue
		}
		cr := p.classifier.Classify(ctx, target, qs, log)
		res.DroppedCount += cr.Irrelevant
		p.metrics.QuotesDropped.WithLabelValues("irrelevant").Add(float64(cr.Irrelevant))
		for _, q := range cr.Quotes {
			label := string(q.Classification)
			if label == "" {
				label = "UNCLASSIFIED"
			}
			res.Counts[label]++
			res.Quotes = append(res.Quotes, q)
		}
	}
	res.QuoteCount = len(res.Quotes)
	p.metrics.QuotesExtracted.Add(float64(res.QuoteCount))

	if p.store != nil && len(res.Quotes) > 0 {
		sr, err := p.store.Store(ctx, res.Quotes, log)
		if err != nil {
			// Quotes are still returned; only indexing failed
			res.Error = fmt.Sprintf("indexing failed: %v", err)
			log.Warn().Err(err).Msg("quotes not indexed")
		}
		log.Debug().
			Int("stored", sr.Stored).
			Int("duplicates", sr.Duplicates).
			Int("failed", sr.Failed).
			Msg("quotes indexed")
	}

	if err := ctx.Err(); err != nil && res.Error == "" {
		res.Error = "batch deadline reached; remaining chunks skipped"
	}

	res.Status = model.FileCompleted
	res.Elapsed = time.Since(start)
	p.metrics.IngestionLatency.Observe(res.Elapsed.Seconds())
	log.Info().
		Int("chunks", res.Chunks).
		Int("quotes", res.QuoteCount).
		Int("dropped", res.DroppedCount).
		Int("failedChunks", res.FailedChunks).
		Dur("elapsed", res.Elapsed).
		Msg("file completed")
	return res
}
