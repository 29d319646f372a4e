package score

import (
	"sort"

	"github.com/ppiankov/vouch/internal/model"
)

// Ranker computes quality, diversity, relevance and composite scores and
// produces the final deterministic ordering of a candidate set. A Ranker
// holds no per-run state; scores are recomputed on every call.
type Ranker struct {
	cfg       model.RankingConfig
	relevance *RelevanceScorer
}

// NewRanker creates a ranker with the given tunables
func NewRanker(cfg model.RankingConfig) *Ranker {
	return &Ranker{
		cfg:       cfg,
		relevance: NewRelevanceScorer(cfg.Relevance, cfg.Seniority),
	}
}

// Config returns the ranking configuration in use
func (r *Ranker) Config() model.RankingConfig {
	return r.cfg
}

// Relevance returns the attribute relevance of a single quote
func (r *Ranker) Relevance(q model.Quote, t model.AttributeType) float64 {
	return r.relevance.Score(q, t)
}

// Rank orders quotes by quality × diversity × similarity.
// Quotes failing the length invariant or the minimum quality/similarity
// thresholds are dropped before ordering.
func (r *Ranker) Rank(quotes []model.Quote, t model.AttributeType, topK int) []model.Quote {
	scored := r.prepare(quotes, t)
	kept := scored[:0]
	for _, q := range scored {
		if q.QualityScore < r.cfg.MinQualityScore || q.SimilarityScore < r.cfg.MinSimilarityScore {
			continue
		}
		q.CompositeScore = q.QualityScore * (1 - q.DiversityPenalty) * q.SimilarityScore
		kept = append(kept, q)
	}
	return r.order(kept, topK)
}

// RankAttributeAware orders quotes by
// (similarity × SimilarityWeight + (relevance/3) × RelevanceWeight) × diversity,
// dropping quotes below the attribute's minimum relevance or the minimum
// quality. With the relevance boost disabled the weighted part is the
// similarity alone.
func (r *Ranker) RankAttributeAware(quotes []model.Quote, t model.AttributeType, topK int) []model.Quote {
	scored := r.prepare(quotes, t)
	minRel := r.cfg.MinRelevance(t)
	kept := scored[:0]
	for _, q := range scored {
		if q.SimilarityScore < r.cfg.MinSimilarityScore || q.QualityScore < r.cfg.MinQualityScore {
			continue
		}
		if r.cfg.EnableRelevanceBoost && q.RelevanceScore < minRel {
			continue
		}
		q.CompositeScore = CompositeScore(q.SimilarityScore, q.RelevanceScore, r.cfg) * (1 - q.DiversityPenalty)
		kept = append(kept, q)
	}
	return r.order(kept, topK)
}

// CompositeScore is the attribute-aware weighted combination
func CompositeScore(similarity, relevance float64, cfg model.RankingConfig) float64 {
	if !cfg.EnableRelevanceBoost {
		return similarity
	}
	return similarity*cfg.SimilarityWeight + (relevance/MaxRelevance)*cfg.RelevanceWeight
}

type indexed struct {
	q   model.Quote
	idx int
}

// prepare copies the valid quotes and fills every transient score field
func (r *Ranker) prepare(quotes []model.Quote, t model.AttributeType) []model.Quote {
	valid := make([]model.Quote, 0, len(quotes))
	for _, q := range quotes {
		if q.Valid() {
			valid = append(valid, q)
		}
	}

	multipliers := DiversityMultipliers(valid, r.cfg.Diversity)
	for i := range valid {
		valid[i].QualityScore = QualityScore(valid[i].Text, r.cfg.Quality)
		valid[i].RelevanceScore = r.relevance.Score(valid[i], t)
		valid[i].DiversityPenalty = 1 - multipliers[i]
	}
	return valid
}

// order sorts by composite score, then similarity, then candidate index
func (r *Ranker) order(quotes []model.Quote, topK int) []model.Quote {
	items := make([]indexed, len(quotes))
	for i, q := range quotes {
		items[i] = indexed{q: q, idx: i}
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.q.CompositeScore != b.q.CompositeScore {
			return a.q.CompositeScore > b.q.CompositeScore
		}
		if a.q.SimilarityScore != b.q.SimilarityScore {
			return a.q.SimilarityScore > b.q.SimilarityScore
		}
		return a.idx < b.idx
	})

	k := r.cfg.ClampTopK(topK)
	if len(items) < k {
		k = len(items)
	}
	out := make([]model.Quote, k)
	for i := 0; i < k; i++ {
		out[i] = items[i].q
	}
	return out
}
