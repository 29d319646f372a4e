package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/vouch/internal/embedding"
	"github.com/ppiankov/vouch/internal/index"
	"github.com/ppiankov/vouch/internal/logging"
	"github.com/ppiankov/vouch/internal/model"
)

type failingEmbedder struct {
	embedding.Embedder
	bad string
}

func (f failingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == f.bad {
		return nil, errors.New("embedding service unavailable")
	}
	return f.Embedder.Embed(ctx, text)
}

type brokenIndex struct {
	*index.MemoryIndex
}

func (brokenIndex) Upsert(ctx context.Context, namespace string, records []index.Record) error {
	return errors.New("disk full")
}

// flakyIndex fails the first failures upserts
type flakyIndex struct {
	*index.MemoryIndex
	failures int
	calls    int
}

func (f *flakyIndex) Upsert(ctx context.Context, namespace string, records []index.Record) error {
	f.calls++
	if f.calls <= f.failures {
		return errors.New("connection reset by peer")
	}
	return f.MemoryIndex.Upsert(ctx, namespace, records)
}

type stalledIndex struct {
	*index.MemoryIndex
}

func (stalledIndex) Upsert(ctx context.Context, namespace string, records []index.Record) error {
	<-ctx.Done()
	return ctx.Err()
}

func storeQuote(source, text string) model.Quote {
	return model.Quote{
		ID:           RecordID(source, "a1", text),
		AssumptionID: "a1",
		Source:       source,
		Text:         text,
		Speaker:      "Dana",
	}
}

func retrievalConfig() model.RetrievalConfig {
	cfg := model.DefaultConfig().Retrieval
	cfg.DedupeTimeout = time.Second
	cfg.RetryBaseDelay = time.Millisecond
	return cfg
}

func TestRecordID(t *testing.T) {
	id := RecordID("a.txt", "a1", "We re-type every intake form by hand")
	assert.Equal(t, id, RecordID("a.txt", "a1", "We re-type every intake form by hand"))
	assert.NotEqual(t, id, RecordID("b.txt", "a1", "We re-type every intake form by hand"))
	assert.NotEqual(t, id, RecordID("a.txt", "a2", "We re-type every intake form by hand"))
}

func TestStore_UpsertsAndSkipsDuplicates(t *testing.T) {
	idx := index.NewMemoryIndex()
	s := NewStore(embedding.NewHashEmbedder(64), idx, "interviews", retrievalConfig(), true)
	ctx := context.Background()

	res, err := s.Store(ctx, []model.Quote{
		storeQuote("a.txt", "We re-type every intake form by hand"),
		storeQuote("a.txt", "Intake eats two hours of my morning"),
	}, logging.Logger())
	require.NoError(t, err)
	assert.Equal(t, StoreResult{Stored: 2}, res)
	assert.Equal(t, 2, idx.Len("interviews"))

	// Same text from another file is a near-exact duplicate
	res, err = s.Store(ctx, []model.Quote{storeQuote("b.txt", "We re-type every intake form by hand")}, logging.Logger())
	require.NoError(t, err)
	assert.Equal(t, StoreResult{Duplicates: 1}, res)

	// Re-ingesting the same file rewrites its own record
	res, err = s.Store(ctx, []model.Quote{storeQuote("a.txt", "We re-type every intake form by hand")}, logging.Logger())
	require.NoError(t, err)
	assert.Equal(t, StoreResult{Stored: 1}, res)
	assert.Equal(t, 2, idx.Len("interviews"))

	matches, err := idx.Query(ctx, "interviews", mustEmbed(t, "Intake eats two hours of my morning"), 1, map[string]string{"assumption_id": "a1"})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	q := model.QuoteFromMetadata(matches[0].ID, matches[0].Metadata, matches[0].Score)
	assert.Equal(t, "a.txt", q.Source)
	assert.Equal(t, "Dana", q.Speaker)
}

func TestStore_DedupeDisabledStoresEverything(t *testing.T) {
	idx := index.NewMemoryIndex()
	s := NewStore(embedding.NewHashEmbedder(64), idx, "interviews", retrievalConfig(), false)

	_, err := s.Store(context.Background(), []model.Quote{storeQuote("a.txt", "We re-type every intake form by hand")}, logging.Logger())
	require.NoError(t, err)
	res, err := s.Store(context.Background(), []model.Quote{storeQuote("b.txt", "We re-type every intake form by hand")}, logging.Logger())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Stored)
	assert.Equal(t, 2, idx.Len("interviews"))
}

func TestStore_EmbedFailureSkipsQuote(t *testing.T) {
	idx := index.NewMemoryIndex()
	e := failingEmbedder{Embedder: embedding.NewHashEmbedder(64), bad: "Intake eats two hours of my morning"}
	s := NewStore(e, idx, "interviews", retrievalConfig(), true)

	res, err := s.Store(context.Background(), []model.Quote{
		storeQuote("a.txt", "We re-type every intake form by hand"),
		storeQuote("a.txt", "Intake eats two hours of my morning"),
	}, logging.Logger())

	require.NoError(t, err)
	assert.Equal(t, StoreResult{Stored: 1, Failed: 1}, res)
}

func TestStore_UpsertFailure(t *testing.T) {
	s := NewStore(embedding.NewHashEmbedder(64), brokenIndex{index.NewMemoryIndex()}, "interviews", retrievalConfig(), true)

	res, err := s.Store(context.Background(), []model.Quote{storeQuote("a.txt", "We re-type every intake form by hand")}, logging.Logger())

	require.Error(t, err)
	assert.Equal(t, 1, res.Failed)
}

func TestStore_UpsertRetried(t *testing.T) {
	idx := &flakyIndex{MemoryIndex: index.NewMemoryIndex(), failures: 1}
	s := NewStore(embedding.NewHashEmbedder(64), idx, "interviews", retrievalConfig(), false)

	res, err := s.Store(context.Background(), []model.Quote{storeQuote("a.txt", "We re-type every intake form by hand")}, logging.Logger())

	require.NoError(t, err)
	assert.Equal(t, StoreResult{Stored: 1}, res)
	assert.Equal(t, 2, idx.calls)
	assert.Equal(t, 1, idx.Len("interviews"))
}

func TestStore_UpsertTimeoutIsBounded(t *testing.T) {
	cfg := retrievalConfig()
	cfg.UpsertTimeout = 20 * time.Millisecond
	cfg.MaxRetries = 0
	s := NewStore(embedding.NewHashEmbedder(64), stalledIndex{index.NewMemoryIndex()}, "interviews", cfg, false)

	start := time.Now()
	res, err := s.Store(context.Background(), []model.Quote{storeQuote("a.txt", "We re-type every intake form by hand")}, logging.Logger())

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, res.Failed)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestStore_CancelledContextReturnsError(t *testing.T) {
	idx := index.NewMemoryIndex()
	s := NewStore(embedding.NewHashEmbedder(64), idx, "interviews", retrievalConfig(), true)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := s.Store(ctx, []model.Quote{
		storeQuote("a.txt", "We re-type every intake form by hand"),
		storeQuote("a.txt", "Intake eats two hours of my morning"),
	}, logging.Logger())

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, res.Failed)
	assert.Equal(t, 0, idx.Len("interviews"))
}

func TestPipeline_StoreFailureKeepsFileCompleted(t *testing.T) {
	store := NewStore(embedding.NewHashEmbedder(64), brokenIndex{index.NewMemoryIndex()}, "interviews", retrievalConfig(), false)
	p, _, _ := newTestPipeline(defaultScript(), testIngestionConfig())
	p.store = store

	batch, err := p.Ingest(context.Background(), []model.TranscriptFile{file("dana.txt", transcript)}, []model.Assumption{painAssumption})
	require.NoError(t, err)

	f := batch.Files[0]
	assert.Equal(t, model.FileCompleted, f.Status)
	assert.Contains(t, f.Error, "indexing failed")
	assert.Len(t, batch.AggregatedQuotes["a1"], 1)
}

func mustEmbed(t *testing.T, text string) []float32 {
	t.Helper()
	vec, err := embedding.NewHashEmbedder(64).Embed(context.Background(), text)
	require.NoError(t, err)
	return vec
}
