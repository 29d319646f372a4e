// Package verdict asks the completion service whether the top-ranked quotes
// support, contradict, or leave a gap in an assumption.
package verdict

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ppiankov/vouch/internal/llm"
	"github.com/ppiankov/vouch/internal/logging"
	"github.com/ppiankov/vouch/internal/metrics"
	"github.com/ppiankov/vouch/internal/model"
	"github.com/ppiankov/vouch/internal/worker"
)

// Analyzer produces verdicts. It never returns an error to its caller:
// failures are folded into degraded verdicts.
type Analyzer struct {
	provider llm.Provider
	policy   worker.Policy
	metrics  *metrics.Metrics
	log      zerolog.Logger
}

// NewAnalyzer creates an analyzer. A nil provider yields degraded verdicts.
// Completion calls are retried per policy.
func NewAnalyzer(provider llm.Provider, policy worker.Policy, m *metrics.Metrics) *Analyzer {
	if m == nil {
		m = metrics.DefaultMetrics
	}
	return &Analyzer{
		provider: provider,
		policy:   policy,
		metrics:  m,
		log:      logging.WithComponent("verdict"),
	}
}

// Analyze runs one gap analysis and reports which branch it ended in
func (an *Analyzer) Analyze(ctx context.Context, a model.Assumption, quotes []model.Quote) model.VerdictResult {
	if an.provider == nil {
		return model.VerdictServiceError(errors.New("no completion provider configured"))
	}
	req := llm.CompletionRequest{
		System: systemPrompt,
		Prompt: BuildPrompt(a, quotes),
		JSON:   true,
	}
	resp, err := worker.Retry(ctx, an.policy, func(ctx context.Context) (*llm.CompletionResponse, error) {
		return an.provider.Complete(ctx, req)
	})
	if err != nil {
		return model.VerdictServiceError(err)
	}

	v, err := ParseVerdict(resp.Text)
	if err != nil {
		return model.VerdictParseFailure(resp.Text, err)
	}
	v.AssumptionID = a.ID
	v.CreatedAt = time.Now().UTC()
	return model.VerdictOK(v)
}

// Verdict always returns an answer. Zero quotes short-circuit to the
// no-evidence verdict without calling the service.
func (an *Analyzer) Verdict(ctx context.Context, a model.Assumption, quotes []model.Quote) model.Verdict {
	if len(quotes) == 0 {
		an.metrics.VerdictsTotal.WithLabelValues("no_evidence").Inc()
		return model.NoEvidenceVerdict(a.ID)
	}

	res := an.Analyze(ctx, a, quotes)
	an.metrics.VerdictsTotal.WithLabelValues(string(res.Kind)).Inc()

	switch res.Kind {
	case model.VerdictKindParseFailure:
		an.log.Warn().
			Err(res.Err).
			Str("assumptionId", a.ID).
			Str("raw", truncate(res.Raw, 200)).
			Msg("verdict output did not parse")
	case model.VerdictKindServiceError:
		an.log.Warn().
			Err(res.Err).
			Str("assumptionId", a.ID).
			Msg("verdict analysis unavailable")
	}

	return res.Resolve(a.ID)
}

// ParseVerdict decodes the analysis JSON. Keys are matched ignoring case
// and underscores so camelCase answers decode too.
func ParseVerdict(text string) (model.Verdict, error) {
	var raw map[string]json.RawMessage
	if err := llm.DecodeJSON(text, &raw); err != nil {
		return model.Verdict{}, fmt.Errorf("%w: %v", model.ErrVerdictParse, err)
	}

	fields := make(map[string]json.RawMessage, len(raw))
	for k, v := range raw {
		fields[normalizeKey(k)] = v
	}

	var v model.Verdict
	supports, okS := fields["supportsassumption"]
	contradicts, okC := fields["contradictsassumption"]
	if !okS && !okC {
		return model.Verdict{}, fmt.Errorf("%w: missing supports/contradicts fields", model.ErrVerdictParse)
	}
	if okS {
		if err := json.Unmarshal(supports, &v.SupportsAssumption); err != nil {
			return model.Verdict{}, fmt.Errorf("%w: supports_assumption: %v", model.ErrVerdictParse, err)
		}
	}
	if okC {
		if err := json.Unmarshal(contradicts, &v.ContradictsAssumption); err != nil {
			return model.Verdict{}, fmt.Errorf("%w: contradicts_assumption: %v", model.ErrVerdictParse, err)
		}
	}

	v.GapReasoning = stringField(fields, "gapreasoning")
	v.FoundInstead = stringField(fields, "foundinstead")
	v.Summary = stringField(fields, "summary")

	v.QuoteAssessments = []model.QuoteAssessment{}
	if rawAssessments, ok := fields["quoteassessments"]; ok {
		var items []map[string]json.RawMessage
		if err := json.Unmarshal(rawAssessments, &items); err != nil {
			return model.Verdict{}, fmt.Errorf("%w: quote_assessments: %v", model.ErrVerdictParse, err)
		}
		for _, item := range items {
			norm := make(map[string]json.RawMessage, len(item))
			for k, val := range item {
				norm[normalizeKey(k)] = val
			}
			v.QuoteAssessments = append(v.QuoteAssessments, model.QuoteAssessment{
				Quote:       stringField(norm, "quote"),
				Supports:    boolField(norm, "supports"),
				Contradicts: boolField(norm, "contradicts"),
				Reason:      stringField(norm, "reason"),
			})
		}
	}

	return v, nil
}

func normalizeKey(k string) string {
	return strings.ToLower(strings.ReplaceAll(k, "_", ""))
}

func stringField(fields map[string]json.RawMessage, key string) string {
	var s string
	if raw, ok := fields[key]; ok {
		_ = json.Unmarshal(raw, &s)
	}
	return s
}

func boolField(fields map[string]json.RawMessage, key string) bool {
	var b bool
	if raw, ok := fields[key]; ok {
		_ = json.Unmarshal(raw, &b)
	}
	return b
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
