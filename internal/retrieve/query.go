// Package retrieve turns an assumption into a semantic query and fetches
// oversampled candidate quotes from the vector index.
package retrieve

import (
	"strings"

	"github.com/ppiankov/vouch/internal/model"
)

// queryTemplates name the evidence categories relevant to each attribute.
// The assumption text is appended after the colon.
var queryTemplates = map[model.AttributeType]string{
	model.AttrBuyerTitles:       "find quotes describing job titles, roles, decision makers, or who evaluates and approves purchases related to",
	model.AttrCompanySize:       "find quotes describing company size, headcount, number of locations, revenue, or team size related to",
	model.AttrPainPoints:        "find quotes describing problems, challenges, or frustrations related to",
	model.AttrDesiredOutcomes:   "find quotes describing goals, desired results, or what success looks like related to",
	model.AttrTriggers:          "find quotes describing events, deadlines, or changes that prompted a search for a solution related to",
	model.AttrBarriers:          "find quotes describing obstacles, objections, risks, or reasons not to buy related to",
	model.AttrMessagingEmphasis: "find quotes describing what customers value most, what resonates, or why they chose a solution related to",
}

const genericTemplate = "find quotes that validate or contradict"

// FormulateQuery builds the enriched retrieval query for an assumption.
// Unknown or empty attribute types fall back to the generic template.
func FormulateQuery(text string, t model.AttributeType) string {
	text = strings.TrimSpace(text)
	tmpl, ok := queryTemplates[t]
	if !ok {
		tmpl = genericTemplate
	}
	return tmpl + ": " + text
}
