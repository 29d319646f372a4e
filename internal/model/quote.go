package model

// MinQuoteLength is the exclusive lower bound on quote text length
const MinQuoteLength = 20

// Classification is the alignment of a quote against its assumption
type Classification string

const (
	ClassAligned    Classification = "ALIGNED"
	ClassMisaligned Classification = "MISALIGNED"
	ClassNewInsight Classification = "NEW_INSIGHT"
	ClassNeutral    Classification = "NEUTRAL"
	ClassIrrelevant Classification = "IRRELEVANT"
)

// ParseClassification normalizes a model-produced label
func ParseClassification(s string) (Classification, bool) {
	switch Classification(normalizeLabel(s)) {
	case ClassAligned:
		return ClassAligned, true
	case ClassMisaligned:
		return ClassMisaligned, true
	case ClassNewInsight:
		return ClassNewInsight, true
	case ClassNeutral:
		return ClassNeutral, true
	case ClassIrrelevant:
		return ClassIrrelevant, true
	}
	return "", false
}

func normalizeLabel(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z':
			out = append(out, c-32)
		case c >= 'A' && c <= 'Z':
			out = append(out, c)
		case c == ' ' || c == '-' || c == '_':
			out = append(out, '_')
		}
	}
	return string(out)
}

// Quote is an attributed span of transcript text treated as evidence.
// Text and attribution are immutable; the score fields are recomputed per
// validation run and never persisted.
type Quote struct {
	ID             string         `json:"id,omitempty"`
	AssumptionID   string         `json:"assumption_id,omitempty"`
	Namespace      string         `json:"namespace,omitempty"`
	Text           string         `json:"text"`
	Speaker        string         `json:"speaker,omitempty"`
	Role           string         `json:"role,omitempty"`
	Source         string         `json:"source"`
	Topic          string         `json:"topic,omitempty"`
	Specificity    int            `json:"specificity,omitempty"`
	Classification Classification `json:"classification,omitempty"`

	SimilarityScore  float64 `json:"similarity_score,omitempty"`
	RelevanceScore   float64 `json:"relevance_score"`
	QualityScore     float64 `json:"quality_score"`
	DiversityPenalty float64 `json:"diversity_penalty"`
	CompositeScore   float64 `json:"composite_score"`
}

// Valid reports whether the quote satisfies the minimum length invariant
func (q Quote) Valid() bool {
	return len([]rune(q.Text)) > MinQuoteLength
}

// Metadata flattens the immutable fields for vector index storage
func (q Quote) Metadata() map[string]string {
	md := map[string]string{
		"assumption_id": q.AssumptionID,
		"text":          q.Text,
		"source":        q.Source,
	}
	if q.Speaker != "" {
		md["speaker"] = q.Speaker
	}
	if q.Role != "" {
		md["role"] = q.Role
	}
	if q.Topic != "" {
		md["topic"] = q.Topic
	}
	if q.Classification != "" {
		md["classification"] = string(q.Classification)
	}
	return md
}

// QuoteFromMetadata rebuilds a quote from index metadata
func QuoteFromMetadata(id string, md map[string]string, similarity float64) Quote {
	q := Quote{
		ID:              id,
		AssumptionID:    md["assumption_id"],
		Text:            md["text"],
		Speaker:         md["speaker"],
		Role:            md["role"],
		Source:          md["source"],
		Topic:           md["topic"],
		SimilarityScore: similarity,
	}
	if c, ok := ParseClassification(md["classification"]); ok {
		q.Classification = c
	}
	return q
}
