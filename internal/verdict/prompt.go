package verdict

import (
	"fmt"
	"strings"

	"github.com/ppiankov/vouch/internal/model"
)

// categoryGuidance names what counts as strong signal for each attribute.
// It is the only part of the prompt that varies by attribute.
var categoryGuidance = map[model.AttributeType]string{
	model.AttrBuyerTitles:       "who actually evaluates, approves, or signs off on purchases: job titles, seniority, and who delegates work to whom",
	model.AttrCompanySize:       "concrete sizing facts: headcount, number of locations or offices, revenue, team sizes",
	model.AttrPainPoints:        "specific problems, frustrations, and their cost in time or money",
	model.AttrDesiredOutcomes:   "concrete goals and what measurable success would look like",
	model.AttrTriggers:          "events, deadlines, or changes that caused the search for a solution",
	model.AttrBarriers:          "objections, risks, and reasons a purchase stalled or was rejected",
	model.AttrMessagingEmphasis: "what buyers say they value most and the language they use for it",
}

const genericGuidance = "statements that directly confirm or refute the assumption"

const systemPrompt = `You are a customer research analyst validating business assumptions against interview evidence.
Be strict: a quote is strong signal only if it speaks directly to the assumption's category.
Exclude quotes that only describe generic product usage or general sentiment.
Never claim support the quotes do not show. Respond with JSON only.`

const analysisTemplate = `Attribute: %s
Assumption: %s

Strong signal for this attribute means %s.

Quotes:
%s
Tasks:
1. Decide which quotes give strong signal for the attribute.
2. Decide whether the strong-signal quotes support or contradict the assumption.
3. Identify gaps where the assumption is not supported, and summarize any alternative pattern actually observed.

Respond with this JSON object:
{
  "supports_assumption": true|false,
  "contradicts_assumption": true|false,
  "gap_reasoning": "where and why the evidence falls short",
  "found_instead": "the pattern the quotes show instead, or empty",
  "summary": "one or two sentence conclusion",
  "quote_assessments": [
    {"quote": "<quote text>", "supports": true|false, "contradicts": true|false, "reason": "<why>"}
  ]
}`

// BuildPrompt renders the shared analysis template for one assumption
func BuildPrompt(a model.Assumption, quotes []model.Quote) string {
	guidance, ok := categoryGuidance[a.AttributeType]
	if !ok {
		guidance = genericGuidance
	}

	var b strings.Builder
	for i, q := range quotes {
		fmt.Fprintf(&b, "%d. %q", i+1, q.Text)
		var who []string
		if q.Speaker != "" {
			who = append(who, q.Speaker)
		}
		if q.Role != "" {
			who = append(who, q.Role)
		}
		if len(who) > 0 {
			fmt.Fprintf(&b, " (%s)", strings.Join(who, ", "))
		}
		b.WriteString("\n")
	}

	return fmt.Sprintf(analysisTemplate, a.AttributeType.DisplayName(), a.Text, guidance, b.String())
}
