// Package embedding turns text into vectors for the similarity index.
package embedding

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/vouch/internal/model"
)

// Embedder turns text into a vector. Identical text must yield vectors with
// stable relative similarity. Implementations do not retry; callers bound
// each call with a timeout.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)

	// Model identifies the embedding space (used in cache keys)
	Model() string
}

// Supported providers
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
	ProviderHash   = "hash"
)

// NewEmbedder creates the embedder selected by cfg
func NewEmbedder(cfg model.EmbeddingConfig) (Embedder, error) {
	timeout := time.Duration(cfg.Timeout) * time.Second

	switch strings.ToLower(cfg.Provider) {
	case ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openai embeddings selected but no API key set (OPENAI_API_KEY)")
		}
		return NewOpenAIEmbedder(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.Dimension), nil
	case ProviderOllama:
		return NewOllamaEmbedder(cfg.BaseURL, cfg.Model, cfg.Dimension, timeout), nil
	case ProviderHash:
		return NewHashEmbedder(cfg.Dimension), nil
	case "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s (supported: openai, ollama, hash)", cfg.Provider)
	}
}

func checkDimension(provider string, want int, got []float32) error {
	if want > 0 && len(got) != want {
		return fmt.Errorf("%s embedding dimension mismatch: expected %d, got %d", provider, want, len(got))
	}
	if len(got) == 0 {
		return fmt.Errorf("%s returned an empty embedding", provider)
	}
	return nil
}
