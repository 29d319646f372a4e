package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/vouch/internal/model"
)

func labelled(labels ...model.Classification) []model.Quote {
	qs := make([]model.Quote, len(labels))
	for i, l := range labels {
		qs[i] = model.Quote{Text: string(l), Classification: l}
	}
	return qs
}

func TestAggregate(t *testing.T) {
	a, m, n, u := model.ClassAligned, model.ClassMisaligned, model.ClassNewInsight, model.ClassNeutral

	tests := []struct {
		name   string
		quotes []model.Quote
		want   model.Outcome
	}{
		{"aligned majority", labelled(a, a, m), model.OutcomeAligned},
		{"misaligned majority", labelled(m, m, a, u), model.OutcomeMisaligned},
		{"new insight majority", labelled(n, n, u), model.OutcomeNewData},
		{"tie", labelled(a, m), model.OutcomePending},
		{"neutral majority", labelled(u, u, a), model.OutcomePending},
		{"no evidence", nil, model.OutcomePending},
		{"unlabelled only", labelled("", ""), model.OutcomePending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Aggregate(tt.quotes))
		})
	}
}

func TestOutcomeLabel(t *testing.T) {
	assert.Equal(t, "Aligned", model.OutcomeAligned.Label())
	assert.Equal(t, "Misaligned", model.OutcomeMisaligned.Label())
	assert.Equal(t, "New Data Added", model.OutcomeNewData.Label())
	assert.Equal(t, "Pending", model.OutcomePending.Label())
}

func TestCollect(t *testing.T) {
	files := []model.FileResult{
		{Name: "b.txt", Quotes: []model.Quote{
			{AssumptionID: "a1", Source: "b.txt", Text: "Intake eats two hours of my morning", Classification: model.ClassAligned},
			{AssumptionID: "a1", Source: "b.txt", Text: "We re-type every intake form by hand", Classification: model.ClassAligned},
		}},
		{Name: "a.txt", Quotes: []model.Quote{
			{AssumptionID: "a1", Source: "a.txt", Text: "We re-type every intake form by hand", Classification: model.ClassAligned},
			{AssumptionID: "a1", Source: "a.txt", Text: "Intake is quick for us, maybe five minutes", Classification: model.ClassMisaligned},
		}},
		{Name: "broken.txt", Status: model.FileFailed},
	}

	quotes, outcomes := collect(files, []string{"a1", "a2"})

	require.Len(t, quotes["a1"], 3)
	assert.Equal(t, "a.txt", quotes["a1"][0].Source)
	assert.Equal(t, "Intake is quick for us, maybe five minutes", quotes["a1"][0].Text)
	assert.Equal(t, "We re-type every intake form by hand", quotes["a1"][1].Text)
	assert.Equal(t, "b.txt", quotes["a1"][2].Source)
	assert.Equal(t, model.OutcomeAligned, outcomes["a1"])

	require.NotNil(t, quotes["a2"])
	assert.Empty(t, quotes["a2"])
	assert.Equal(t, model.OutcomePending, outcomes["a2"])

	// Reordering files does not change the result
	reordered, _ := collect([]model.FileResult{files[1], files[2], files[0]}, []string{"a1", "a2"})
	assert.Equal(t, quotes, reordered)
}
