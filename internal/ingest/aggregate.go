package ingest

import (
	"sort"

	"github.com/ppiankov/vouch/internal/model"
)

// votingClasses are the retained classifications, in tie-free order
var votingClasses = []model.Classification{
	model.ClassAligned,
	model.ClassMisaligned,
	model.ClassNewInsight,
	model.ClassNeutral,
}

// Aggregate decides an assumption's outcome by majority vote over the
// retained classes. Ties, a NEUTRAL majority, and no votes are pending.
func Aggregate(quotes []model.Quote) model.Outcome {
	counts := make(map[model.Classification]int, len(votingClasses))
	for _, q := range quotes {
		counts[q.Classification]++
	}

	best, bestN, tied := model.Classification(""), 0, false
	for _, c := range votingClasses {
		n := counts[c]
		switch {
		case n > bestN:
			best, bestN, tied = c, n, false
		case n == bestN && n > 0:
			tied = true
		}
	}
	if bestN == 0 || tied {
		return model.OutcomePending
	}

	switch best {
	case model.ClassAligned:
		return model.OutcomeAligned
	case model.ClassMisaligned:
		return model.OutcomeMisaligned
	case model.ClassNewInsight:
		return model.OutcomeNewData
	default:
		return model.OutcomePending
	}
}

// collect unions per-file quotes by assumption and decides each outcome.
// Quotes with identical text for the same assumption are kept once, and
// ordering is independent of file completion order.
func collect(files []model.FileResult, targetIDs []string) (map[string][]model.Quote, map[string]model.Outcome) {
	byAssumption := make(map[string][]model.Quote, len(targetIDs))
	for _, id := range targetIDs {
		byAssumption[id] = []model.Quote{}
	}

	for _, f := range files {
		for _, q := range f.Quotes {
			byAssumption[q.AssumptionID] = append(byAssumption[q.AssumptionID], q)
		}
	}

	outcomes := make(map[string]model.Outcome, len(byAssumption))
	for id, qs := range byAssumption {
		sort.SliceStable(qs, func(i, j int) bool {
			if qs[i].Source != qs[j].Source {
				return qs[i].Source < qs[j].Source
			}
			return qs[i].Text < qs[j].Text
		})
		unique := qs[:0]
		seen := make(map[string]bool, len(qs))
		for _, q := range qs {
			if seen[q.Text] {
				continue
			}
			seen[q.Text] = true
			unique = append(unique, q)
		}
		byAssumption[id] = unique
		outcomes[id] = Aggregate(unique)
	}
	return byAssumption, outcomes
}
