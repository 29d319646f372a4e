package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/vouch/internal/cache"
	"github.com/ppiankov/vouch/internal/metrics"
	"github.com/ppiankov/vouch/internal/model"
	"github.com/ppiankov/vouch/internal/vector"
)

func TestOpenAIEmbedder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		var req openai.EmbeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		_ = json.NewEncoder(w).Encode(openai.EmbeddingResponse{
			Object: "list",
			Data: []openai.Embedding{
				{Object: "embedding", Index: 0, Embedding: []float32{0.1, 0.2, 0.3}},
			},
		})
	}))
	defer server.Close()

	e := NewOpenAIEmbedder("test-key", server.URL, "", 3)
	assert.Equal(t, string(openai.SmallEmbedding3), e.Model())

	vec, err := e.Embed(context.Background(), "buyers are attorneys")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
}

func TestOpenAIEmbedder_DimensionMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(openai.EmbeddingResponse{
			Data: []openai.Embedding{{Index: 0, Embedding: []float32{0.1}}},
		})
	}))
	defer server.Close()

	_, err := NewOpenAIEmbedder("k", server.URL, "m", 3).Embed(context.Background(), "x")
	assert.ErrorContains(t, err, "dimension mismatch")
}

func TestOllamaEmbedder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embeddings", r.URL.Path)
		var req ollamaRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "nomic-embed-text", req.Model)

		_ = json.NewEncoder(w).Encode(ollamaResponse{Embedding: []float64{1, 0, -1}})
	}))
	defer server.Close()

	e := NewOllamaEmbedder(server.URL+"/", "", 0, time.Second)
	vec, err := e.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0, -1}, vec)
}

func TestOllamaEmbedder_Error(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(ollamaResponse{Error: "model not found"})
	}))
	defer server.Close()

	_, err := NewOllamaEmbedder(server.URL, "missing", 0, time.Second).Embed(context.Background(), "hello")
	assert.ErrorContains(t, err, "model not found")
}

func TestHashEmbedder(t *testing.T) {
	e := NewHashEmbedder(128)
	ctx := context.Background()

	a, err := e.Embed(ctx, "Manual invoice reconciliation takes hours")
	require.NoError(t, err)
	again, _ := e.Embed(ctx, "manual invoice reconciliation takes hours!")
	related, _ := e.Embed(ctx, "invoice reconciliation is manual")
	unrelated, _ := e.Embed(ctx, "we enjoyed the conference lunch")

	assert.Len(t, a, 128)
	assert.InDelta(t, 1.0, vector.Cosine(a, again), 1e-6)
	assert.Greater(t, vector.Cosine(a, related), vector.Cosine(a, unrelated))
	assert.Equal(t, "hash-128", e.Model())
}

type countingEmbedder struct {
	calls int
	err   error
}

func (c *countingEmbedder) Model() string { return "counting" }

func (c *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return []float32{float32(len(text)), 1}, nil
}

func TestCachedEmbedder(t *testing.T) {
	inner := &countingEmbedder{}
	m := metrics.NewTestMetrics()
	e := NewCachedEmbedder(inner, cache.NewMemoryCache(time.Minute, time.Minute), 0, m)

	first, err := e.Embed(context.Background(), "hello")
	require.NoError(t, err)
	second, err := e.Embed(context.Background(), "hello")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("miss")))
}

func TestCachedEmbedder_ErrorsNotCached(t *testing.T) {
	inner := &countingEmbedder{err: errors.New("down")}
	e := NewCachedEmbedder(inner, cache.NewMemoryCache(time.Minute, time.Minute), 0, metrics.NewTestMetrics())

	_, err := e.Embed(context.Background(), "hello")
	require.Error(t, err)
	_, err = e.Embed(context.Background(), "hello")
	require.Error(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestNewCachedEmbedder_NilCache(t *testing.T) {
	inner := &countingEmbedder{}
	assert.Same(t, inner, NewCachedEmbedder(inner, nil, 0, nil))
}

func TestNewEmbedder(t *testing.T) {
	e, err := NewEmbedder(model.EmbeddingConfig{})
	require.NoError(t, err)
	assert.Nil(t, e)

	e, err = NewEmbedder(model.EmbeddingConfig{Provider: "hash", Dimension: 64})
	require.NoError(t, err)
	assert.Equal(t, "hash-64", e.Model())

	_, err = NewEmbedder(model.EmbeddingConfig{Provider: "openai"})
	assert.Error(t, err)

	_, err = NewEmbedder(model.EmbeddingConfig{Provider: "cohere"})
	assert.Error(t, err)
}
