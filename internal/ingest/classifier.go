package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ppiankov/vouch/internal/extract"
	"github.com/ppiankov/vouch/internal/llm"
	"github.com/ppiankov/vouch/internal/model"
	"github.com/ppiankov/vouch/internal/worker"
)

// ErrMalformedClassification marks classification output that did not parse
var ErrMalformedClassification = errors.New("malformed classification output")

const classifySystem = `You compare customer interview quotes against a business assumption.
Label each quote with exactly one of:
ALIGNED (supports the assumption), MISALIGNED (contradicts it),
NEW_INSIGHT (relevant information the assumption does not cover),
NEUTRAL (on topic but neither supports nor contradicts),
IRRELEVANT (not about the assumption at all).
Respond with JSON only.`

const classifyPrompt = `Assumption (%s): %s

Quotes:
%s
Respond with JSON: {"classifications": [{"index": 1, "label": "ALIGNED"}, ...]} with one entry per quote.`

// ClassifyResult is the outcome of classifying one target's quotes
type ClassifyResult struct {
	Quotes        []model.Quote
	Irrelevant    int
	FailedBatches int
}

// Classifier labels extracted quotes against their target
type Classifier struct {
	provider  llm.Provider
	batchSize int
	policy    worker.Policy
}

// NewClassifier creates a classifier that sends batchSize quotes per call
// and retries each call under policy
func NewClassifier(provider llm.Provider, batchSize int, policy worker.Policy) *Classifier {
	if batchSize <= 0 {
		batchSize = 3
	}
	return &Classifier{provider: provider, batchSize: batchSize, policy: policy}
}

// Classify labels quotes batch by batch, in order, and drops IRRELEVANT
// ones. A batch that still fails after retries keeps its quotes
// unlabelled so they remain evidence without voting.
func (c *Classifier) Classify(ctx context.Context, target extract.Target, quotes []model.Quote, log zerolog.Logger) ClassifyResult {
	res := ClassifyResult{Quotes: make([]model.Quote, 0, len(quotes))}

	for start := 0; start < len(quotes); start += c.batchSize {
		end := start + c.batchSize
		if end > len(quotes) {
			end = len(quotes)
		}
		batch := quotes[start:end]

		labels, err := worker.Retry(ctx, c.policy, func(ctx context.Context) ([]model.Classification, error) {
			return c.classifyBatch(ctx, target, batch)
		})
		if err != nil {
			res.FailedBatches++
			log.Warn().
				Err(err).
				Str("assumptionId", target.AssumptionID).
				Int("batchStart", start).
				Msg("classification failed, keeping quotes unlabelled")
			res.Quotes = append(res.Quotes, batch...)
			continue
		}

		for i, q := range batch {
			if labels[i] == model.ClassIrrelevant {
				res.Irrelevant++
				continue
			}
			q.Classification = labels[i]
			res.Quotes = append(res.Quotes, q)
		}
	}
	return res
}

func (c *Classifier) classifyBatch(ctx context.Context, target extract.Target, batch []model.Quote) ([]model.Classification, error) {
	var b strings.Builder
	for i, q := range batch {
		fmt.Fprintf(&b, "%d. %q\n", i+1, q.Text)
	}

	resp, err := c.provider.Complete(ctx, llm.CompletionRequest{
		System: classifySystem,
		Prompt: fmt.Sprintf(classifyPrompt, target.Attribute.DisplayName(), target.Text, b.String()),
		JSON:   true,
	})
	if err != nil {
		return nil, err
	}
	return ParseClassifications(resp.Text, len(batch))
}

// ParseClassifications reads n labels. Entries may carry a 1-based index
// or be positional, and may be objects or bare label strings.
func ParseClassifications(text string, n int) ([]model.Classification, error) {
	raw, err := llm.ExtractJSON(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedClassification, err)
	}

	var entries []json.RawMessage
	if strings.HasPrefix(raw, "[") {
		if err := json.Unmarshal([]byte(raw), &entries); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedClassification, err)
		}
	} else {
		var obj struct {
			Classifications []json.RawMessage `json:"classifications"`
		}
		if err := json.Unmarshal([]byte(raw), &obj); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedClassification, err)
		}
		entries = obj.Classifications
	}

	labels := make([]model.Classification, n)
	for pos, e := range entries {
		idx, label, err := parseEntry(e)
		if err != nil {
			return nil, err
		}
		if idx == 0 {
			idx = pos + 1
		}
		if idx < 1 || idx > n {
			continue
		}
		labels[idx-1] = label
	}

	for i, l := range labels {
		if l == "" {
			return nil, fmt.Errorf("%w: no label for quote %d", ErrMalformedClassification, i+1)
		}
	}
	return labels, nil
}

func parseEntry(e json.RawMessage) (int, model.Classification, error) {
	var s string
	if err := json.Unmarshal(e, &s); err == nil {
		c, ok := model.ParseClassification(s)
		if !ok {
			return 0, "", fmt.Errorf("%w: unknown label %q", ErrMalformedClassification, s)
		}
		return 0, c, nil
	}

	var obj struct {
		Index          int    `json:"index"`
		Label          string `json:"label"`
		Classification string `json:"classification"`
	}
	if err := json.Unmarshal(e, &obj); err != nil {
		return 0, "", fmt.Errorf("%w: %v", ErrMalformedClassification, err)
	}
	label := obj.Label
	if label == "" {
		label = obj.Classification
	}
	c, ok := model.ParseClassification(label)
	if !ok {
		return 0, "", fmt.Errorf("%w: unknown label %q", ErrMalformedClassification, label)
	}
	return obj.Index, c, nil
}
