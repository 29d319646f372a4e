// Package pipeline wires configured services into the validation and
// ingestion pipelines and renders their reports.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ppiankov/vouch/internal/cache"
	"github.com/ppiankov/vouch/internal/embedding"
	"github.com/ppiankov/vouch/internal/filter"
	"github.com/ppiankov/vouch/internal/index"
	"github.com/ppiankov/vouch/internal/ingest"
	"github.com/ppiankov/vouch/internal/llm"
	"github.com/ppiankov/vouch/internal/logging"
	"github.com/ppiankov/vouch/internal/metrics"
	"github.com/ppiankov/vouch/internal/model"
	"github.com/ppiankov/vouch/internal/retrieve"
	"github.com/ppiankov/vouch/internal/score"
	"github.com/ppiankov/vouch/internal/validate"
	"github.com/ppiankov/vouch/internal/verdict"
	"github.com/ppiankov/vouch/internal/worker"
)

// Services are the external handles a Pipeline runs on. Any of them may
// be nil, but not both Provider and Embedder.
type Services struct {
	Provider llm.Provider
	Embedder embedding.Embedder
	Index    index.Index
	Cache    cache.Cache
}

// BuildServices opens the services described by cfg
func BuildServices(ctx context.Context, cfg *model.Config, m *metrics.Metrics) (Services, error) {
	var s Services

	if cfg.LLM.Provider != "" {
		p, err := llm.FromModel(cfg.LLM)
		if err != nil {
			return s, fmt.Errorf("completion provider: %w", err)
		}
		limiter := worker.NewLimiter(cfg.LLM.RequestsPerSecond, cfg.LLM.Burst)
		s.Provider = llm.NewService(p, limiter, m)
	}

	e, err := embedding.NewEmbedder(cfg.Embeddings)
	if err != nil {
		return s, fmt.Errorf("embedding client: %w", err)
	}
	if e == nil {
		if s.Provider == nil {
			return s, model.ErrNoServices
		}
		return s, nil
	}

	cacheCfg := cfg.Cache
	cacheCfg.Dir = ExpandHome(cacheCfg.Dir)
	c, err := cache.New(cacheCfg)
	if err != nil {
		return s, fmt.Errorf("embedding cache: %w", err)
	}
	s.Cache = c
	s.Embedder = embedding.NewCachedEmbedder(e, c, cfg.Cache.DiskTTL, m)

	indexCfg := cfg.Index
	indexCfg.SQLitePath = ExpandHome(indexCfg.SQLitePath)
	idx, err := index.New(ctx, indexCfg, cfg.Embeddings.Dimension)
	if err != nil {
		closeCache(c)
		return s, fmt.Errorf("vector index: %w", err)
	}
	s.Index = idx

	return s, nil
}

// Pipeline runs validation and ingestion over one set of services
type Pipeline struct {
	cfg       *model.Config
	services  Services
	validator *validate.Validator
	ingest    *ingest.Pipeline
	fetcher   *Fetcher
	renderer  *Renderer
	log       zerolog.Logger
}

// NewPipeline builds services from cfg and wires both pipelines
func NewPipeline(ctx context.Context, cfg *model.Config, m *metrics.Metrics) (*Pipeline, error) {
	s, err := BuildServices(ctx, cfg, m)
	if err != nil {
		return nil, err
	}
	return NewWithServices(cfg, s, m)
}

// NewWithServices wires both pipelines over already opened services
func NewWithServices(cfg *model.Config, s Services, m *metrics.Metrics) (*Pipeline, error) {
	if s.Provider == nil && s.Embedder == nil {
		return nil, model.ErrNoServices
	}
	if m == nil {
		m = metrics.DefaultMetrics
	}

	llmTimeout := time.Duration(cfg.LLM.Timeout) * time.Second

	deps := validate.Deps{
		Ranker:   score.NewRanker(cfg.Ranking),
		Analyzer: verdict.NewAnalyzer(s.Provider, completionPolicy(cfg.LLM, m, "verdict"), m),
	}
	if s.Embedder != nil && s.Index != nil {
		deps.Retriever = retrieve.NewRetriever(s.Embedder, s.Index, cfg.Retrieval, m)
	}
	var justification *filter.JustificationStage
	if cfg.Ranking.EnableLLMJustification && s.Provider != nil {
		justification = filter.NewJustificationStage(s.Provider, completionPolicy(cfg.LLM, m, "justification"))
	}
	deps.Filter = filter.New(justification, m)

	p := &Pipeline{
		cfg:       cfg,
		services:  s,
		validator: validate.NewValidator(deps, cfg.Index.InterviewNamespace, 0),
		fetcher:   NewFetcher(llmTimeout, cfg.LLM.HTTPProxy, cfg.LLM.HTTPSProxy),
		renderer:  NewRenderer(cfg.Output.IncludeQuotes),
		log:       logging.WithComponent("pipeline"),
	}

	if s.Provider != nil {
		var store *ingest.Store
		if s.Embedder != nil && s.Index != nil {
			store = ingest.NewStore(s.Embedder, s.Index, cfg.Index.InterviewNamespace, cfg.Retrieval, cfg.Ingestion.DedupeCheck)
		}
		p.ingest = ingest.NewPipeline(s.Provider, store, cfg.Ingestion, m)
	}

	return p, nil
}

// Validate validates every assumption against the interview namespace
func (p *Pipeline) Validate(ctx context.Context, assumptions []model.Assumption) (*model.ValidationReport, error) {
	report, err := p.validator.ValidateAll(ctx, assumptions)
	if err != nil {
		return nil, err
	}
	report.LLM = p.llmInfo()
	return report, nil
}

// ValidateCandidates validates one assumption against caller-supplied
// candidates; nil candidates are retrieved from the index
func (p *Pipeline) ValidateCandidates(ctx context.Context, a model.Assumption, candidates []model.Quote) (model.AssumptionResult, error) {
	if err := validate.CheckAssumptions([]model.Assumption{a}); err != nil {
		return model.AssumptionResult{}, err
	}
	return p.validator.Validate(ctx, a, candidates), nil
}

// Ingest processes already loaded transcript files
func (p *Pipeline) Ingest(ctx context.Context, files []model.TranscriptFile, assumptions []model.Assumption) (*model.IngestionBatch, error) {
	if p.ingest == nil {
		return nil, fmt.Errorf("%w: ingestion needs a completion provider", model.ErrNoServices)
	}
	return p.ingest.Ingest(ctx, files, assumptions)
}

// IngestSources loads local paths and http(s) URLs, then ingests them.
// A source that cannot be loaded is reported as a failed file and does not
// stop its siblings.
func (p *Pipeline) IngestSources(ctx context.Context, sources []string, assumptions []model.Assumption) (*model.IngestionBatch, error) {
	if p.ingest == nil {
		return nil, fmt.Errorf("%w: ingestion needs a completion provider", model.ErrNoServices)
	}

	files, failed := p.Load(ctx, sources)
	batch, err := p.ingest.Ingest(ctx, files, assumptions)
	if err != nil {
		return nil, err
	}
	batch.Files = append(batch.Files, failed...)
	return batch, nil
}

// Load reads each source. Failures come back as failed file results.
func (p *Pipeline) Load(ctx context.Context, sources []string) ([]model.TranscriptFile, []model.FileResult) {
	var (
		files  []model.TranscriptFile
		failed []model.FileResult
	)
	for _, src := range sources {
		var (
			f   model.TranscriptFile
			err error
		)
		if IsURL(src) {
			f, err = p.fetcher.Fetch(ctx, src)
		} else {
			var loaded []model.TranscriptFile
			loaded, err = worker.LoadFiles([]string{src})
			if err == nil {
				f = loaded[0]
			}
		}
		if err != nil {
			p.log.Warn().Err(err).Str("source", src).Msg("source not loaded")
			failed = append(failed, model.FileResult{
				Name:   src,
				Status: model.FileFailed,
				Quotes: []model.Quote{},
				Error:  fmt.Sprintf("%v: %v", model.ErrFileFailure, err),
			})
			continue
		}
		files = append(files, f)
	}
	return files, failed
}

// Renderer returns the report renderer
func (p *Pipeline) Renderer() *Renderer {
	return p.renderer
}

// Ready reports whether the configured services answer
func (p *Pipeline) Ready(ctx context.Context) bool {
	if p.services.Provider != nil && !p.services.Provider.IsAvailable(ctx) {
		return false
	}
	return true
}

// Close releases the index and cache
func (p *Pipeline) Close() error {
	var errs []error
	if p.services.Index != nil {
		errs = append(errs, p.services.Index.Close())
	}
	if c, ok := p.services.Cache.(io.Closer); ok {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

func (p *Pipeline) llmInfo() *model.LLMInfo {
	if p.services.Provider == nil {
		return nil
	}
	return &model.LLMInfo{Provider: p.services.Provider.Name(), Model: p.cfg.LLM.Model}
}

func closeCache(c cache.Cache) {
	if closer, ok := c.(io.Closer); ok {
		_ = closer.Close()
	}
}

// ExpandHome replaces a leading ~ with the user's home directory
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// IsURL reports whether src should be fetched over http(s)
func IsURL(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

// completionPolicy retries transient completion failures on the validation
// path, each attempt bounded by the configured LLM timeout.
func completionPolicy(cfg model.LLMConfig, m *metrics.Metrics, operation string) worker.Policy {
	return worker.Policy{
		MaxRetries:  cfg.MaxRetries,
		BaseDelay:   time.Duration(cfg.RetryBaseDelayMs) * time.Millisecond,
		Timeout:     time.Duration(cfg.Timeout) * time.Second,
		IsRetryable: llm.IsRetryable,
		OnRetry: func(int, error) {
			m.Retries.WithLabelValues(operation).Inc()
		},
	}
}
