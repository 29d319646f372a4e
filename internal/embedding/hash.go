package embedding

import (
	"context"
	"hash/fnv"
	"strconv"
	"strings"
	"unicode"

	"github.com/ppiankov/vouch/internal/vector"
)

const defaultHashDimension = 256

// HashEmbedder is a deterministic bag-of-words embedder using feature
// hashing. It needs no network and is meant for offline runs and tests;
// texts sharing words score as similar.
type HashEmbedder struct {
	dimension int
}

// NewHashEmbedder creates a hashing embedder
func NewHashEmbedder(dimension int) *HashEmbedder {
	if dimension <= 0 {
		dimension = defaultHashDimension
	}
	return &HashEmbedder{dimension: dimension}
}

// Model returns a name encoding the dimension
func (e *HashEmbedder) Model() string {
	return "hash-" + strconv.Itoa(e.dimension)
}

// Embed returns the normalized token-hash vector of text
func (e *HashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vec := make([]float32, e.dimension)
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, tok := range tokens {
		h := fnv.New32a()
		_, _ = h.Write([]byte(tok))
		sum := h.Sum32()
		idx := int(sum % uint32(e.dimension))
		// The top bit picks the sign so collisions tend to cancel
		if sum&(1<<31) != 0 {
			vec[idx]--
		} else {
			vec[idx]++
		}
	}
	return vector.Normalize(vec), nil
}
