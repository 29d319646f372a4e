// Package filter narrows retrieved candidates to the quotes relevant to an
// assumption: a keyword taxonomy stage followed by an optional
// completion-assisted justification stage.
package filter

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/ppiankov/vouch/internal/logging"
	"github.com/ppiankov/vouch/internal/metrics"
	"github.com/ppiankov/vouch/internal/model"
	"github.com/ppiankov/vouch/internal/taxonomy"
)

// KeywordStage keeps candidates containing at least one keyword of the
// assumption's attribute, or of any attribute when none is set.
type KeywordStage struct{}

// Apply never fails
func (KeywordStage) Apply(a model.Assumption, candidates []model.Quote) []model.Quote {
	kept := make([]model.Quote, 0, len(candidates))
	for _, q := range candidates {
		if taxonomy.Passes(q.Text, a.AttributeType) {
			kept = append(kept, q)
		}
	}
	return kept
}

// Filter runs the two stages in order
type Filter struct {
	keyword       KeywordStage
	justification *JustificationStage
	metrics       *metrics.Metrics
	log           zerolog.Logger
}

// New creates a filter. A nil justification stage disables the second pass.
func New(justification *JustificationStage, m *metrics.Metrics) *Filter {
	if m == nil {
		m = metrics.DefaultMetrics
	}
	return &Filter{
		justification: justification,
		metrics:       m,
		log:           logging.WithComponent("filter"),
	}
}

// FilterQuotes applies the keyword stage and then, when configured and
// anything survived, the justification stage. A failed justification call
// passes the keyword survivors through unchanged.
func (f *Filter) FilterQuotes(ctx context.Context, a model.Assumption, candidates []model.Quote) []model.Quote {
	kept := f.keyword.Apply(a, candidates)
	f.metrics.FilterDropped.WithLabelValues("keyword").Add(float64(len(candidates) - len(kept)))

	if f.justification == nil || len(kept) == 0 {
		return kept
	}

	justified, err := f.justification.Apply(ctx, a, kept)
	if err != nil {
		f.metrics.FilterFailOpen.Inc()
		f.log.Warn().
			Err(err).
			Str("assumptionId", a.ID).
			Int("candidates", len(kept)).
			Msg("justification stage failed, passing keyword survivors through")
		return kept
	}

	f.metrics.FilterDropped.WithLabelValues("justification").Add(float64(len(kept) - len(justified)))
	return justified
}
