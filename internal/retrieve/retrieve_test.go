package retrieve

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/vouch/internal/embedding"
	"github.com/ppiankov/vouch/internal/index"
	"github.com/ppiankov/vouch/internal/metrics"
	"github.com/ppiankov/vouch/internal/model"
)

func TestFormulateQuery(t *testing.T) {
	tests := []struct {
		attr model.AttributeType
		want string
	}{
		{model.AttrPainPoints, "find quotes describing problems, challenges, or frustrations related to: intake is slow"},
		{"", "find quotes that validate or contradict: intake is slow"},
		{"unknown", "find quotes that validate or contradict: intake is slow"},
	}
	for _, tt := range tests {
		t.Run(string(tt.attr), func(t *testing.T) {
			assert.Equal(t, tt.want, FormulateQuery("  intake is slow ", tt.attr))
		})
	}
}

func TestFormulateQuery_EveryAttributeHasTemplate(t *testing.T) {
	for _, attr := range model.AllAttributeTypes {
		q := FormulateQuery("x", attr)
		assert.False(t, strings.HasPrefix(q, genericTemplate), attr)
		assert.True(t, strings.HasSuffix(q, ": x"), attr)
	}
}

type failingEmbedder struct{}

func (failingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, errors.New("embedding service down")
}

func (failingEmbedder) Model() string { return "failing" }

// flakyEmbedder fails its first call
type flakyEmbedder struct {
	embedding.Embedder
	calls int
}

func (f *flakyEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	if f.calls == 1 {
		return nil, errors.New("connection reset by peer")
	}
	return f.Embedder.Embed(ctx, text)
}

type slowIndex struct{ index.Index }

func (slowIndex) Query(ctx context.Context, ns string, vec []float32, topK int, filter map[string]string) ([]index.Match, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func seedIndex(t *testing.T, e embedding.Embedder, idx index.Index, n int) {
	t.Helper()
	ctx := context.Background()
	var recs []index.Record
	for i := 0; i < n; i++ {
		text := fmt.Sprintf("Quote number %d about slow client intake and billing delays", i)
		vec, err := e.Embed(ctx, text)
		require.NoError(t, err)
		q := model.Quote{AssumptionID: "a1", Text: text, Source: "call-1", Speaker: "Dana"}
		recs = append(recs, index.Record{ID: fmt.Sprintf("q%d", i), Vector: vec, Metadata: q.Metadata()})
	}
	vec, err := e.Embed(ctx, "Unrelated assumption quote about hiring")
	require.NoError(t, err)
	other := model.Quote{AssumptionID: "a2", Text: "Unrelated assumption quote about hiring", Source: "call-2"}
	recs = append(recs, index.Record{ID: "other", Vector: vec, Metadata: other.Metadata()})
	require.NoError(t, idx.Upsert(ctx, "interviews", recs))
}

func TestRetriever_OversamplesAndFilters(t *testing.T) {
	e := embedding.NewHashEmbedder(64)
	idx := index.NewMemoryIndex()
	seedIndex(t, e, idx, 30)

	r := NewRetriever(e, idx, model.RetrievalConfig{CandidateMultiplier: 5}, metrics.NewTestMetrics())
	quotes := r.Retrieve(context.Background(), "a1", 2, "slow intake", "interviews")

	require.Len(t, quotes, 10)
	for _, q := range quotes {
		assert.Equal(t, "a1", q.AssumptionID)
		assert.Equal(t, "interviews", q.Namespace)
		assert.Equal(t, "Dana", q.Speaker)
		assert.NotEmpty(t, q.ID)
	}
}

func TestRetriever_EmbedFailureYieldsEmpty(t *testing.T) {
	m := metrics.NewTestMetrics()
	r := NewRetriever(failingEmbedder{}, index.NewMemoryIndex(), model.RetrievalConfig{}, m)

	quotes := r.Retrieve(context.Background(), "a1", 5, "query", "interviews")

	assert.NotNil(t, quotes)
	assert.Empty(t, quotes)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RetrievalFailures))
}

func TestRetriever_QueryTimeoutYieldsEmpty(t *testing.T) {
	m := metrics.NewTestMetrics()
	cfg := model.RetrievalConfig{QueryTimeout: 20 * time.Millisecond}
	r := NewRetriever(embedding.NewHashEmbedder(16), slowIndex{}, cfg, m)

	quotes := r.Retrieve(context.Background(), "a1", 5, "query", "interviews")

	assert.Empty(t, quotes)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RetrievalFailures))
}

func TestRetriever_RetriesTransientEmbedFailure(t *testing.T) {
	e := embedding.NewHashEmbedder(64)
	idx := index.NewMemoryIndex()
	seedIndex(t, e, idx, 3)

	m := metrics.NewTestMetrics()
	flaky := &flakyEmbedder{Embedder: e}
	cfg := model.RetrievalConfig{MaxRetries: 2, RetryBaseDelay: time.Millisecond}
	r := NewRetriever(flaky, idx, cfg, m)

	quotes := r.Retrieve(context.Background(), "a1", 5, "slow intake", "interviews")

	assert.Len(t, quotes, 3)
	assert.Equal(t, 2, flaky.calls)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Retries.WithLabelValues("embed_query")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.RetrievalFailures))
}

func TestRetriever_QueryTimeoutRetriedThenFails(t *testing.T) {
	m := metrics.NewTestMetrics()
	cfg := model.RetrievalConfig{QueryTimeout: 10 * time.Millisecond, MaxRetries: 1, RetryBaseDelay: time.Millisecond}
	r := NewRetriever(embedding.NewHashEmbedder(16), slowIndex{}, cfg, m)

	quotes := r.Retrieve(context.Background(), "a1", 5, "query", "interviews")

	assert.Empty(t, quotes)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Retries.WithLabelValues("index_query")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RetrievalFailures))
}

func TestRetriever_NotConfigured(t *testing.T) {
	m := metrics.NewTestMetrics()
	r := NewRetriever(nil, nil, model.RetrievalConfig{}, m)
	assert.Empty(t, r.Retrieve(context.Background(), "a1", 5, "q", "ns"))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RetrievalFailures))
}
