package model

import "time"

// AnalysisUnavailable is the reasoning attached to degraded verdicts
const AnalysisUnavailable = "analysis unavailable"

// NoEvidenceReasoning is the reasoning attached when retrieval produced nothing
const NoEvidenceReasoning = "no evidence found: no interview quotes matched this assumption"

// QuoteAssessment is the per-quote judgement inside a verdict
type QuoteAssessment struct {
	Quote       string `json:"quote"`
	Supports    bool   `json:"supports"`
	Contradicts bool   `json:"contradicts"`
	Reason      string `json:"reason"`
}

// Verdict is the structured output of validating one assumption against its
// best evidence. A verdict is never mutated after creation.
type Verdict struct {
	AssumptionID          string            `json:"assumption_id"`
	SupportsAssumption    bool              `json:"supports_assumption"`
	ContradictsAssumption bool              `json:"contradicts_assumption"`
	GapReasoning          string            `json:"gap_reasoning"`
	FoundInstead          string            `json:"found_instead"`
	Summary               string            `json:"summary"`
	QuoteAssessments      []QuoteAssessment `json:"quote_assessments"`
	Degraded              bool              `json:"degraded,omitempty"`
	CreatedAt             time.Time         `json:"created_at"`
}

// DegradedVerdict returns the answer used when analysis could not complete
func DegradedVerdict(assumptionID, detail string) Verdict {
	summary := "Gap analysis could not be completed"
	if detail != "" {
		summary += ": " + detail
	}
	return Verdict{
		AssumptionID:     assumptionID,
		GapReasoning:     AnalysisUnavailable,
		Summary:          summary,
		QuoteAssessments: []QuoteAssessment{},
		Degraded:         true,
		CreatedAt:        time.Now().UTC(),
	}
}

// NoEvidenceVerdict returns the answer for an assumption with zero retrieved quotes
func NoEvidenceVerdict(assumptionID string) Verdict {
	return Verdict{
		AssumptionID:     assumptionID,
		GapReasoning:     NoEvidenceReasoning,
		Summary:          "No supporting or contradicting evidence was found in the interviews.",
		QuoteAssessments: []QuoteAssessment{},
		CreatedAt:        time.Now().UTC(),
	}
}

// VerdictKind tags the outcome of a gap analysis call
type VerdictKind string

const (
	VerdictKindOK           VerdictKind = "ok"
	VerdictKindParseFailure VerdictKind = "parse_failure"
	VerdictKindServiceError VerdictKind = "service_error"
)

// VerdictResult is Ok(Verdict) | ParseFailure(raw) | ServiceError(cause)
type VerdictResult struct {
	Kind    VerdictKind
	Verdict Verdict
	Raw     string
	Err     error
}

// VerdictOK wraps a successfully parsed verdict
func VerdictOK(v Verdict) VerdictResult {
	return VerdictResult{Kind: VerdictKindOK, Verdict: v}
}

// VerdictParseFailure records completion output that did not parse
func VerdictParseFailure(raw string, err error) VerdictResult {
	return VerdictResult{Kind: VerdictKindParseFailure, Raw: raw, Err: err}
}

// VerdictServiceError records a completion service failure
func VerdictServiceError(err error) VerdictResult {
	return VerdictResult{Kind: VerdictKindServiceError, Err: err}
}

// Resolve returns the verdict for every branch, degrading the failure branches
func (r VerdictResult) Resolve(assumptionID string) Verdict {
	switch r.Kind {
	case VerdictKindOK:
		v := r.Verdict
		v.AssumptionID = assumptionID
		return v
	case VerdictKindParseFailure:
		return DegradedVerdict(assumptionID, "unparseable analysis output")
	default:
		return DegradedVerdict(assumptionID, "completion service unavailable")
	}
}
