// Package validate runs the evidence pipeline for assumptions: query,
// retrieve, filter, rank, and verdict.
package validate

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ppiankov/vouch/internal/filter"
	"github.com/ppiankov/vouch/internal/logging"
	"github.com/ppiankov/vouch/internal/model"
	"github.com/ppiankov/vouch/internal/retrieve"
	"github.com/ppiankov/vouch/internal/score"
	"github.com/ppiankov/vouch/internal/verdict"
	"github.com/ppiankov/vouch/internal/worker"
)

// Deps are the service handles a Validator uses. Retriever may be nil when
// callers always supply candidates; Filter nil means keyword-only filtering.
type Deps struct {
	Retriever *retrieve.Retriever
	Filter    *filter.Filter
	Ranker    *score.Ranker
	Analyzer  *verdict.Analyzer
}

// Validator validates assumptions concurrently
type Validator struct {
	deps       Deps
	namespace  string
	maxWorkers int
	log        zerolog.Logger
}

// NewValidator creates a new validator
func NewValidator(deps Deps, namespace string, maxWorkers int) *Validator {
	if maxWorkers <= 0 {
		maxWorkers = 5
	}
	if deps.Filter == nil {
		deps.Filter = filter.New(nil, nil)
	}
	if deps.Ranker == nil {
		deps.Ranker = score.NewRanker(model.DefaultConfig().Ranking)
	}
	if deps.Analyzer == nil {
		deps.Analyzer = verdict.NewAnalyzer(nil, worker.Policy{}, nil)
	}
	return &Validator{
		deps:       deps,
		namespace:  namespace,
		maxWorkers: maxWorkers,
		log:        logging.WithComponent("validate"),
	}
}

// Validate produces the result for one assumption. When candidates is nil
// they are retrieved from the index; supplied candidates without a
// similarity score count as fully similar. It always returns a verdict.
func (v *Validator) Validate(ctx context.Context, a model.Assumption, candidates []model.Quote) model.AssumptionResult {
	res := model.AssumptionResult{
		Assumption: a,
		Query:      retrieve.FormulateQuery(a.Text, a.AttributeType),
	}
	topK := v.deps.Ranker.Config().ClampTopK(0)

	if candidates == nil {
		if v.deps.Retriever == nil {
			res.Warnings = append(res.Warnings, "no retriever configured")
			candidates = []model.Quote{}
		} else {
			candidates = v.deps.Retriever.Retrieve(ctx, a.ID, topK, res.Query, v.namespace)
		}
	} else {
		candidates = withDefaultSimilarity(candidates)
	}
	res.Candidates = len(candidates)

	filtered := v.deps.Filter.FilterQuotes(ctx, a, candidates)
	ranked := v.deps.Ranker.RankAttributeAware(filtered, a.AttributeType, topK)
	res.Quotes = ranked
	res.Verdict = v.deps.Analyzer.Verdict(ctx, a, ranked)

	switch {
	case len(candidates) == 0:
		res.Status = model.StatusNoEvidence
		res.Warnings = append(res.Warnings, "no candidates retrieved")
	case len(ranked) == 0:
		res.Status = model.StatusNoEvidence
		res.Warnings = append(res.Warnings, fmt.Sprintf("all %d candidates filtered out", len(candidates)))
	case res.Verdict.Degraded:
		res.Status = model.StatusPartial
	default:
		res.Status = model.StatusFor(res.Verdict)
	}

	v.log.Debug().
		Str("assumptionId", a.ID).
		Int("candidates", len(candidates)).
		Int("filtered", len(filtered)).
		Int("ranked", len(ranked)).
		Str("status", string(res.Status)).
		Msg("assumption validated")

	return res
}

// ValidateAll validates every assumption concurrently. Results keep the
// input order and every assumption gets exactly one verdict. Only a
// malformed assumption list is reported as an error.
func (v *Validator) ValidateAll(ctx context.Context, assumptions []model.Assumption) (*model.ValidationReport, error) {
	if err := CheckAssumptions(assumptions); err != nil {
		return nil, err
	}

	start := time.Now()
	results := make([]model.AssumptionResult, len(assumptions))
	done := make(chan struct{}, len(assumptions))

	// Create semaphore to limit concurrent validations
	semaphore := make(chan struct{}, v.maxWorkers)

	for i, a := range assumptions {
		go func(idx int, a model.Assumption) {
			defer func() { done <- struct{}{} }()

			select {
			case <-ctx.Done():
				results[idx] = failedResult(a, "context cancelled")
				return
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			results[idx] = v.validateSafe(ctx, a)
		}(i, a)
	}

	for range assumptions {
		<-done
	}

	return &model.ValidationReport{
		Namespace:   v.namespace,
		GeneratedAt: start.UTC(),
		Elapsed:     time.Since(start),
		Results:     results,
	}, nil
}

// validateSafe isolates a panicking assumption from its siblings
func (v *Validator) validateSafe(ctx context.Context, a model.Assumption) (res model.AssumptionResult) {
	defer func() {
		if r := recover(); r != nil {
			v.log.Error().
				Str("assumptionId", a.ID).
				Interface("panic", r).
				Msg("validation panicked")
			res = failedResult(a, fmt.Sprintf("panic: %v", r))
		}
	}()
	return v.Validate(ctx, a, nil)
}

func failedResult(a model.Assumption, reason string) model.AssumptionResult {
	return model.AssumptionResult{
		Assumption: a,
		Status:     model.StatusFailed,
		Quotes:     []model.Quote{},
		Verdict:    model.DegradedVerdict(a.ID, reason),
		Warnings:   []string{reason},
	}
}

func withDefaultSimilarity(quotes []model.Quote) []model.Quote {
	out := make([]model.Quote, len(quotes))
	for i, q := range quotes {
		if q.SimilarityScore == 0 {
			q.SimilarityScore = 1
		}
		out[i] = q
	}
	return out
}
