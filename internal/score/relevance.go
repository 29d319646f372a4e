package score

import (
	"math"
	"regexp"
	"strings"

	"github.com/ppiankov/vouch/internal/model"
	"github.com/ppiankov/vouch/internal/taxonomy"
)

// MaxRelevance is the top of the relevance scale
const MaxRelevance = 3.0

var (
	decisionPattern    = regexp.MustCompile(`\b(?:approv(?:e|es|ed|al)|sign(?:s|ed)? off|decid(?:e|es|ed)|decision|final say|budget|purchas(?:e|es|ed|ing)|buy(?:s|ing)?|bought|veto)\b`)
	sizeNumberPattern  = regexp.MustCompile(`\b\d[\d,]*\+?\s*(?:-\s*\d[\d,]*\s*)?(?:full[- ]time\s+)?(?:employees|people|staff|users|seats|locations|offices|attorneys|lawyers|agents|reps|engineers|clinicians|stores|branches|person|members)\b`)
	revenuePattern     = regexp.MustCompile(`\$\s?\d[\d,.]*\s?(?:k|m|mm|b|million|billion|thousand)?\b|\b\d+\s?(?:million|billion)\b`)
	sizeDescriptor     = regexp.MustCompile(`\b(?:small business|smb|mid-?size|mid-?market|enterprise|startup|start-up|fortune \d+|boutique|solo|large firm|small firm|multinational)\b`)
	measurablePattern  = regexp.MustCompile(`\d+\s?%|\bpercent\b|\b\d+\s?(?:hours?|days?|weeks?|x)\b|\$\s?\d`)
	timingPattern      = regexp.MustCompile(`\b(?:when|after|once|as soon as|since|right after|the moment|until)\b`)
	comparativePattern = regexp.MustCompile(`\b(?:compared to|better than|versus|instead of|rather than|unlike|switched from)\b`)
	intensityPattern   = regexp.MustCompile(`\b(?:nightmare|hate|drives? me crazy|killing us|huge problem|biggest (?:problem|issue|challenge)|constantly|every single)\b`)
)

var problemTerms = []string{
	"problem", "issue", "challenge", "struggle", "frustrat", "pain", "headache", "difficult",
	"hard to", "slow", "manual", "error", "mistake", "broken", "waste", "bottleneck", "delay",
	"expensive", "tedious", "overwhelm",
}

var goalTerms = []string{
	"want", "goal", "hope", "wish", "achieve", "improve", "increase", "reduce", "save",
	"faster", "easier", "automate", "streamline", "would love", "looking for", "ideal",
	"so that", "success",
}

var eventTerms = []string{
	"switched", "renewal", "contract", "audit", "new hire", "hired", "acquisition", "merger",
	"outage", "incident", "deadline", "funding", "raised", "launch", "expanded", "reorg",
	"regulation", "last straw", "realized", "decided",
}

var obstacleTerms = []string{
	"barrier", "obstacle", "blocker", "objection", "hesitan", "reluctan", "pushback",
	"push back", "concern", "risk", "skeptic", "don't trust", "learning curve", "buy-in",
	"red tape", "approval", "not a priority", "no time", "already have", "good enough",
}

var obstacleCategoryTerms = []string{
	"price", "pricing", "cost", "expensive", "afford", "security", "privacy", "compliance",
	"integration", "integrate", "migration", "implementation", "setup", "training",
}

var valueTerms = []string{
	"value", "benefit", "love", "favorite", "favourite", "best part", "most important",
	"care about", "resonate", "sold me", "convinced", "selling point", "differentiator",
	"stand out", "easy to use", "recommend", "save time", "save money", "peace of mind",
	"reliable",
}

// RelevanceScorer scores attribute-specific relevance on a 0–3 scale
type RelevanceScorer struct {
	weights   model.RelevanceWeights
	seniority *SeniorityClassifier
}

// NewRelevanceScorer creates a relevance scorer. Zero weights fall back to
// the defaults.
func NewRelevanceScorer(weights model.RelevanceWeights, vocab model.SeniorityVocabulary) *RelevanceScorer {
	if weights == (model.RelevanceWeights{}) {
		weights = model.DefaultRelevanceWeights()
	}
	return &RelevanceScorer{weights: weights, seniority: NewSeniorityClassifier(vocab)}
}

// Score returns the relevance of a quote to an attribute type, capped at 3
func (r *RelevanceScorer) Score(q model.Quote, t model.AttributeType) float64 {
	lower := strings.ToLower(q.Text)
	w := r.weights
	var pts float64

	credit := func(ok bool, points float64) {
		if ok {
			pts += points
		}
	}
	terms := func(list []string) float64 {
		return math.Min(float64(countTerms(lower, list))*w.Term, w.TermCap)
	}

	switch t {
	case model.AttrBuyerTitles:
		pts += r.seniority.Classify(lower, q.Role).Points(w)
		credit(decisionPattern.MatchString(lower), w.Decision)
		credit(q.Role != "", w.RoleMention)

	case model.AttrCompanySize:
		credit(sizeNumberPattern.MatchString(lower), w.SizeNumber)
		credit(sizeDescriptor.MatchString(lower), w.SizeDescriptor)
		credit(revenuePattern.MatchString(lower), w.Revenue)

	case model.AttrPainPoints:
		pts += terms(problemTerms)
		credit(intensityPattern.MatchString(lower), w.Signal)

	case model.AttrDesiredOutcomes:
		pts += terms(goalTerms)
		credit(measurablePattern.MatchString(lower), w.Signal)

	case model.AttrTriggers:
		credit(timingPattern.MatchString(lower), w.Signal)
		pts += terms(eventTerms)

	case model.AttrBarriers:
		pts += terms(obstacleTerms)
		credit(countTerms(lower, obstacleCategoryTerms) > 0, w.Signal)

	case model.AttrMessagingEmphasis:
		pts += terms(valueTerms)
		credit(comparativePattern.MatchString(lower), w.Signal)

	default:
		// Broad relevance: credit per attribute whose taxonomy matches
		for _, at := range model.AllAttributeTypes {
			credit(taxonomy.Matches(lower, at), w.BroadMatch)
		}
	}

	return math.Min(pts, MaxRelevance)
}

func countTerms(lower string, terms []string) int {
	n := 0
	for _, term := range terms {
		if strings.Contains(lower, term) {
			n++
		}
	}
	return n
}
