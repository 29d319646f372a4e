package score

import (
	"math"
	"strings"

	"github.com/ppiankov/vouch/internal/model"
)

// DiversityMultipliers returns one multiplier per quote in (0,1].
// Quotes from a speaker contributing n>1 quotes are scaled by SpeakerFactor/n;
// quotes from a source contributing m>2 quotes are scaled by SourceFactor/sqrt(m).
// Quotes without a speaker are never discounted for speaker repetition.
func DiversityMultipliers(quotes []model.Quote, cfg model.DiversityConfig) []float64 {
	speakers := make(map[string]int)
	sources := make(map[string]int)
	for _, q := range quotes {
		if key := speakerKey(q); key != "" {
			speakers[key]++
		}
		if key := sourceKey(q); key != "" {
			sources[key]++
		}
	}

	out := make([]float64, len(quotes))
	for i, q := range quotes {
		m := 1.0
		if n := speakers[speakerKey(q)]; n > 1 {
			m *= cfg.SpeakerFactor / float64(n)
		}
		if n := sources[sourceKey(q)]; n > 2 {
			m *= cfg.SourceFactor / math.Sqrt(float64(n))
		}
		out[i] = m
	}
	return out
}

// speakerKey scopes speakers to their source so two interviews with a
// speaker called "Customer" are not merged
func speakerKey(q model.Quote) string {
	s := strings.ToLower(strings.TrimSpace(q.Speaker))
	if s == "" {
		return ""
	}
	return sourceKey(q) + "|" + s
}

func sourceKey(q model.Quote) string {
	return strings.ToLower(strings.TrimSpace(q.Source))
}
