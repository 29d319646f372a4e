package model

import "time"

// ResultStatus classifies how validation of one assumption ended
type ResultStatus string

const (
	StatusSupported    ResultStatus = "supported"    // Evidence supports the assumption
	StatusContradicted ResultStatus = "contradicted" // Evidence contradicts the assumption
	StatusGap          ResultStatus = "gap"          // Evidence analyzed, neither supports nor contradicts
	StatusPartial      ResultStatus = "partial"      // Evidence retrieved but analysis degraded
	StatusNoEvidence   ResultStatus = "no_evidence"  // Retrieval or filtering left nothing
	StatusFailed       ResultStatus = "failed"       // Unexpected failure, degraded verdict attached
)

// StatusFor derives the status of a completed, non-degraded analysis from
// its verdict. A verdict claiming both support and contradiction counts as
// supported.
func StatusFor(v Verdict) ResultStatus {
	switch {
	case v.SupportsAssumption:
		return StatusSupported
	case v.ContradictsAssumption:
		return StatusContradicted
	default:
		return StatusGap
	}
}

// AssumptionResult is the validation outcome for a single assumption
type AssumptionResult struct {
	Assumption Assumption   `json:"assumption"`
	Status     ResultStatus `json:"status"`
	Query      string       `json:"query,omitempty"`
	Candidates int          `json:"candidates"`
	Quotes     []Quote      `json:"quotes"`
	Verdict    Verdict      `json:"verdict"`
	Warnings   []string     `json:"warnings,omitempty"`
}

// ValidationReport is the complete result of a validation run
type ValidationReport struct {
	Namespace   string             `json:"namespace"`
	GeneratedAt time.Time          `json:"generated_at"`
	Elapsed     time.Duration      `json:"elapsed"`
	Results     []AssumptionResult `json:"results"`
	LLM         *LLMInfo           `json:"llm,omitempty"`
}

// LLMInfo records which completion backend produced the verdicts
type LLMInfo struct {
	Provider string `json:"provider"`
	Model    string `json:"model,omitempty"`
}

// Count returns how many results ended in the given status
func (r *ValidationReport) Count(status ResultStatus) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == status {
			n++
		}
	}
	return n
}
