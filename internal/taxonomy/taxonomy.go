package taxonomy

import (
	"strings"

	"github.com/ppiankov/vouch/internal/model"
)

// Keywords returns a copy of the keyword list for an attribute type.
// Unknown attribute types have no keywords.
func Keywords(t model.AttributeType) []string {
	set := keywordSets[t]
	out := make([]string, len(set))
	copy(out, set)
	return out
}

// Matches reports whether text contains at least one keyword of t
// (case-insensitive substring match).
func Matches(text string, t model.AttributeType) bool {
	return matchesLower(strings.ToLower(text), keywordSets[t])
}

// MatchesAny reports whether text matches the keyword list of any attribute.
// Used for broad relevance when no attribute type is known.
func MatchesAny(text string) bool {
	lower := strings.ToLower(text)
	for _, t := range model.AllAttributeTypes {
		if matchesLower(lower, keywordSets[t]) {
			return true
		}
	}
	return false
}

// Passes applies the keyword filter rule: an unknown or empty attribute type
// falls back to broad relevance.
func Passes(text string, t model.AttributeType) bool {
	if _, ok := keywordSets[t]; !ok {
		return MatchesAny(text)
	}
	return Matches(text, t)
}

// MatchedKeywords returns every keyword of t found in text, in list order
func MatchedKeywords(text string, t model.AttributeType) []string {
	lower := strings.ToLower(text)
	var found []string
	for _, kw := range keywordSets[t] {
		if strings.Contains(lower, kw) {
			found = append(found, kw)
		}
	}
	return found
}

func matchesLower(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
