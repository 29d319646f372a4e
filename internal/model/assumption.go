package model

import "strings"

// AttributeType is the evidence category an assumption is scoped to
type AttributeType string

const (
	AttrBuyerTitles       AttributeType = "buyer-titles"
	AttrCompanySize       AttributeType = "company-size"
	AttrPainPoints        AttributeType = "pain-points"
	AttrDesiredOutcomes   AttributeType = "desired-outcomes"
	AttrTriggers          AttributeType = "triggers"
	AttrBarriers          AttributeType = "barriers"
	AttrMessagingEmphasis AttributeType = "messaging-emphasis"
)

// AllAttributeTypes lists every attribute in canonical order
var AllAttributeTypes = []AttributeType{
	AttrBuyerTitles,
	AttrCompanySize,
	AttrPainPoints,
	AttrDesiredOutcomes,
	AttrTriggers,
	AttrBarriers,
	AttrMessagingEmphasis,
}

// DisplayName returns the human-readable attribute name used in prompts and reports
func (t AttributeType) DisplayName() string {
	switch t {
	case AttrBuyerTitles:
		return "Buyer Titles"
	case AttrCompanySize:
		return "Company Size"
	case AttrPainPoints:
		return "Pain Points"
	case AttrDesiredOutcomes:
		return "Desired Outcomes"
	case AttrTriggers:
		return "Triggers"
	case AttrBarriers:
		return "Barriers"
	case AttrMessagingEmphasis:
		return "Messaging Emphasis"
	default:
		return "General"
	}
}

// Known reports whether t is one of the seven attribute types
func (t AttributeType) Known() bool {
	_, ok := ParseAttributeType(string(t))
	return ok
}

// ParseAttributeType accepts kebab-case, snake_case and display names
func ParseAttributeType(s string) (AttributeType, bool) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.ReplaceAll(norm, "_", "-")
	norm = strings.ReplaceAll(norm, " ", "-")
	for _, t := range AllAttributeTypes {
		if string(t) == norm {
			return t, true
		}
	}
	return "", false
}

// Assumption is a single testable claim about buyers, scoped to one attribute
type Assumption struct {
	ID              string        `json:"id" yaml:"id" validate:"required"`
	AttributeType   AttributeType `json:"attribute_type,omitempty" yaml:"attribute_type,omitempty" validate:"omitempty,oneof=buyer-titles company-size pain-points desired-outcomes triggers barriers messaging-emphasis"`
	Text            string        `json:"text" yaml:"text" validate:"required,min=5"`
	EvidenceSummary string        `json:"evidence_summary,omitempty" yaml:"evidence_summary,omitempty"`
}

// TopicAssumptionID returns the synthetic assumption id used in pure-interview mode
func TopicAssumptionID(t AttributeType) string {
	return "topic:" + string(t)
}
