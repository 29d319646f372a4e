package score

import (
	"regexp"
	"strings"

	"github.com/ppiankov/vouch/internal/model"
)

// SeniorityTier classifies how close a role sits to the buying decision
type SeniorityTier int

const (
	TierUnknown      SeniorityTier = 0 // No role language found
	TierExecutive    SeniorityTier = 1 // Owners, partners, C-level, VPs
	TierManagement   SeniorityTier = 2 // Directors, heads of, managers, leads
	TierPractitioner SeniorityTier = 3 // Individual contributors and support staff
)

func (t SeniorityTier) String() string {
	switch t {
	case TierExecutive:
		return "executive"
	case TierManagement:
		return "management"
	case TierPractitioner:
		return "practitioner"
	default:
		return "unknown"
	}
}

// Points returns the relevance credit a tier earns for buyer-titles
func (t SeniorityTier) Points(w model.RelevanceWeights) float64 {
	switch t {
	case TierExecutive:
		return w.Executive
	case TierManagement:
		return w.Management
	case TierPractitioner:
		return w.Practitioner
	default:
		return 0
	}
}

// DefaultSeniorityVocabulary returns the built-in role vocabulary
func DefaultSeniorityVocabulary() model.SeniorityVocabulary {
	return model.SeniorityVocabulary{
		Executive: []string{
			"ceo", "cfo", "coo", "cto", "cio", "cmo", "cro", "chief", "founder", "co-founder", "owner",
			"president", "vice president", "vp", "svp", "evp", "managing partner", "partner",
			"principal", "executive director", "general counsel", "board member",
		},
		Management: []string{
			"director", "head of", "manager", "team lead", "lead", "supervisor", "controller",
			"superintendent", "department head", "practice manager", "office manager",
		},
		Practitioner: []string{
			"paralegal", "attorney", "lawyer", "associate", "analyst", "assistant", "coordinator",
			"specialist", "administrator", "admin", "engineer", "developer", "accountant",
			"bookkeeper", "clerk", "nurse", "technician", "representative", "rep", "agent",
			"recruiter", "consultant", "intern", "staff",
		},
	}
}

// SeniorityClassifier maps free-text role mentions to seniority tiers
type SeniorityClassifier struct {
	patterns []*tierPattern
}

type tierPattern struct {
	pattern *regexp.Regexp
	tier    SeniorityTier
}

// NewSeniorityClassifier compiles the role vocabulary. Tiers left empty in
// vocab use the built-in terms.
func NewSeniorityClassifier(vocab model.SeniorityVocabulary) *SeniorityClassifier {
	defaults := DefaultSeniorityVocabulary()
	if len(vocab.Executive) == 0 {
		vocab.Executive = defaults.Executive
	}
	if len(vocab.Management) == 0 {
		vocab.Management = defaults.Management
	}
	if len(vocab.Practitioner) == 0 {
		vocab.Practitioner = defaults.Practitioner
	}

	classifier := &SeniorityClassifier{}
	add := func(terms []string, tier SeniorityTier) {
		if len(terms) == 0 {
			return
		}
		quoted := make([]string, len(terms))
		for i, term := range terms {
			quoted[i] = regexp.QuoteMeta(strings.ToLower(term))
		}
		re := regexp.MustCompile(`\b(?:` + strings.Join(quoted, "|") + `)s?\b`)
		classifier.patterns = append(classifier.patterns, &tierPattern{pattern: re, tier: tier})
	}

	// Order matters: the most senior match wins
	add(vocab.Executive, TierExecutive)
	add(vocab.Management, TierManagement)
	add(vocab.Practitioner, TierPractitioner)

	return classifier
}

// Classify returns the most senior tier mentioned across the given texts
func (c *SeniorityClassifier) Classify(texts ...string) SeniorityTier {
	joined := strings.ToLower(strings.Join(texts, " "))
	for _, tp := range c.patterns {
		if tp.pattern.MatchString(joined) {
			return tp.tier
		}
	}
	return TierUnknown
}
