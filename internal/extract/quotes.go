package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ppiankov/vouch/internal/llm"
	"github.com/ppiankov/vouch/internal/model"
)

// ErrMalformed marks extraction output that could not be parsed. It is
// retried like a transient service error.
var ErrMalformed = errors.New("malformed extraction output")

// Target is what quotes are extracted for: a deck assumption, or a fixed
// topic in pure-interview mode
type Target struct {
	AssumptionID string
	Attribute    model.AttributeType
	Text         string
}

// Result is the outcome of one extraction call
type Result struct {
	Quotes  []model.Quote
	Dropped int
}

const quoteSystem = `You extract verbatim evidence from customer interview transcripts.
Only copy text the interviewee actually said. Never paraphrase or invent quotes.
Respond with JSON only.`

const quotePrompt = `Extract between 1 and %d quotes from the transcript excerpt below that are evidence for or against:
%s (%s)

For each quote give the speaker name if known, their role or job title if stated,
and a specificity score from 0 to 10 (10 = concrete numbers, named roles, real examples; 0 = vague sentiment).
If nothing in the excerpt is relevant, return an empty list.

Respond with JSON: {"quotes": [{"text": "...", "speaker": "...", "role": "...", "specificity": 7}]}

Transcript excerpt:
"""
%s
"""`

type rawQuote struct {
	Text        string  `json:"text"`
	Quote       string  `json:"quote"`
	Speaker     string  `json:"speaker"`
	Role        string  `json:"role"`
	Specificity float64 `json:"specificity"`
}

// QuoteExtractor asks the completion service for quotes in one chunk
type QuoteExtractor struct {
	provider       llm.Provider
	maxQuotes      int
	minLength      int
	minSpecificity int
}

// NewQuoteExtractor creates an extractor with the ingestion thresholds
func NewQuoteExtractor(provider llm.Provider, cfg model.IngestionConfig) *QuoteExtractor {
	e := &QuoteExtractor{
		provider:       provider,
		maxQuotes:      cfg.QuotesPerChunk,
		minLength:      cfg.MinQuoteLength,
		minSpecificity: cfg.MinSpecificity,
	}
	if e.maxQuotes <= 0 {
		e.maxQuotes = 3
	}
	if e.minLength <= model.MinQuoteLength {
		e.minLength = model.MinQuoteLength + 1
	}
	return e
}

// Extract makes one completion call. Quotes below the length or
// specificity threshold, repeats, and anything past the per-chunk cap are
// dropped and counted.
func (e *QuoteExtractor) Extract(ctx context.Context, chunk string, target Target) (Result, error) {
	resp, err := e.provider.Complete(ctx, llm.CompletionRequest{
		System: quoteSystem,
		Prompt: fmt.Sprintf(quotePrompt, e.maxQuotes, target.Text, target.Attribute.DisplayName(), chunk),
		JSON:   true,
	})
	if err != nil {
		return Result{}, err
	}

	raws, err := parseQuotes(resp.Text)
	if err != nil {
		return Result{}, err
	}

	res := Result{Quotes: make([]model.Quote, 0, len(raws))}
	seen := make(map[string]bool, len(raws))
	for _, r := range raws {
		text := strings.TrimSpace(r.Text)
		if text == "" {
			text = strings.TrimSpace(r.Quote)
		}
		text = strings.Trim(text, `"“”`)

		spec := int(r.Specificity + 0.5)
		switch {
		case len([]rune(text)) < e.minLength,
			spec < e.minSpecificity,
			seen[text],
			len(res.Quotes) >= e.maxQuotes:
			res.Dropped++
			continue
		}
		seen[text] = true

		res.Quotes = append(res.Quotes, model.Quote{
			AssumptionID: target.AssumptionID,
			Text:         text,
			Speaker:      strings.TrimSpace(r.Speaker),
			Role:         strings.TrimSpace(r.Role),
			Topic:        string(target.Attribute),
			Specificity:  spec,
		})
	}
	return res, nil
}

// parseQuotes accepts {"quotes": [...]} or a bare array
func parseQuotes(text string) ([]rawQuote, error) {
	raw, err := llm.ExtractJSON(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if strings.HasPrefix(raw, "[") {
		var arr []rawQuote
		if err := llm.DecodeJSON(raw, &arr); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return arr, nil
	}

	var obj struct {
		Quotes *[]rawQuote `json:"quotes"`
	}
	if err := llm.DecodeJSON(raw, &obj); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if obj.Quotes == nil {
		return nil, fmt.Errorf("%w: response has no quotes field", ErrMalformed)
	}
	return *obj.Quotes, nil
}
