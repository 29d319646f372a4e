package score

import (
	"regexp"
	"strings"

	"github.com/ppiankov/vouch/internal/model"
)

// specificityIndicators each award one specificity step when present
var specificityIndicators = []*regexp.Regexp{
	regexp.MustCompile(`\b\d+(?:[.,]\d+)?\b`),                                                                      // numbers
	regexp.MustCompile(`\$\s?\d|\b\d+\s?(?:dollars|usd|bucks)\b|\b\d+k\b`),                                       // money
	regexp.MustCompile(`\d+\s?%|\bpercent\b`),                                                                      // percentages
	regexp.MustCompile(`\b(?:seconds?|minutes?|hours?|days?|weeks?|months?|quarters?|years?)\b`),                   // time units
	regexp.MustCompile(`\b(?:ceo|cfo|cto|coo|vp|director|manager|partner|paralegal|attorney|analyst|assistant|admin|head of|controller)\b`), // named roles
	regexp.MustCompile(`\b(?:team|department|company|firm|organization|office|board|agency|practice)\b`),           // organizational references
	regexp.MustCompile(`\b(?:if|unless|whenever|only when|as long as)\b`),                                          // conditional clauses
}

var buzzwordPhrases = []string{
	"synergy", "leverage", "best-in-class", "best in class", "game changer", "game-changer",
	"cutting edge", "cutting-edge", "paradigm", "disrupt", "innovative", "world-class",
	"next-gen", "holistic", "seamless", "value-add", "move the needle", "circle back",
	"low-hanging fruit", "thought leader",
}

var examplePhrases = []string{
	"for example", "for instance", "last week", "last month", "last quarter", "yesterday",
	"one time", "the other day", "we had a", "there was a", "specifically", "such as",
	"case in point", "just last",
}

var genericSatisfactionPhrases = []string{
	"it's great", "it is great", "it's good", "it is good", "love it", "works well",
	"pretty good", "really good", "happy with", "it's fine", "no complaints", "it's nice",
	"it's awesome", "it's ok", "it's okay",
}

var fillerPattern = regexp.MustCompile(`\b(?:um+|uh+|you know|kind of|sort of|i mean|basically|like,)`)

var delegationPattern = regexp.MustCompile(`\b(?:manag(?:e|es|ed|ing)|assign(?:s|ed|ing)?|delegat(?:e|es|ed|ing)|reports? to|oversee(?:s|ing)?|supervis(?:e|es|ed|ing)|hand(?:s|ed)? (?:it|that|this|off)|(?:has|have|gets?|got) (?:my|our|the|a) \w+ (?:to )?(?:do|handle|run|take care))\b`)

// QualityBreakdown exposes every component of the quality score
type QualityBreakdown struct {
	Words       int     `json:"words"`
	Length      float64 `json:"length"`
	Specificity float64 `json:"specificity"`
	Buzzwords   float64 `json:"buzzwords"`
	Example     float64 `json:"example"`
	Generic     float64 `json:"generic"`
	Filler      float64 `json:"filler"`
	Delegation  float64 `json:"delegation"`
	Score       float64 `json:"score"`
}

// QualityScore scores a quote's intrinsic text quality in [0,1]
func QualityScore(text string, w model.QualityWeights) float64 {
	return Quality(text, w).Score
}

// Quality computes the quality score along with its components
func Quality(text string, w model.QualityWeights) QualityBreakdown {
	lower := strings.ToLower(text)
	b := QualityBreakdown{Words: len(strings.Fields(text))}

	switch {
	case b.Words >= w.SweetSpotMin && b.Words <= w.SweetSpotMax:
		b.Length = w.LengthCredit
	case b.Words < w.ShortWords || b.Words > w.LongWords:
		b.Length = -w.LengthPenalty
	default:
		b.Length = w.LengthCredit / 2
	}

	for _, re := range specificityIndicators {
		if re.MatchString(lower) {
			b.Specificity += w.SpecificityStep
		}
	}
	b.Specificity = minf(b.Specificity, w.SpecificityCap)

	for _, p := range buzzwordPhrases {
		if strings.Contains(lower, p) {
			b.Buzzwords -= w.BuzzwordStep
		}
	}
	b.Buzzwords = maxf(b.Buzzwords, -w.BuzzwordCap)

	if containsAny(lower, examplePhrases) {
		b.Example = w.ExampleCredit
	}
	if containsAny(lower, genericSatisfactionPhrases) {
		b.Generic = -w.GenericPenalty
	}

	fillers := len(fillerPattern.FindAllStringIndex(lower, -1))
	b.Filler = maxf(-float64(fillers)*w.FillerStep, -w.FillerCap)

	if delegationPattern.MatchString(lower) && specificityIndicators[4].MatchString(lower) {
		b.Delegation = w.DelegationBonus
	}

	raw := b.Length + b.Specificity + b.Buzzwords + b.Example + b.Generic + b.Filler + b.Delegation
	b.Score = clamp01(raw)
	return b
}

func containsAny(lower string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
