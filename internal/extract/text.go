// Package extract turns uploaded transcripts into plain text, splits them
// into topic-sized chunks, and asks the completion service for quotes.
package extract

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ppiankov/vouch/internal/model"
)

// TextExtractor converts one document format to plain text
type TextExtractor interface {
	// Name returns the extractor name
	Name() string

	// CanHandle checks if this extractor understands the file
	CanHandle(name string, contentType string) bool

	// ExtractText returns the document's plain text. Paragraphs are
	// separated by blank lines.
	ExtractText(data []byte) (string, error)
}

// Registry manages text extractors
type Registry struct {
	extractors []TextExtractor
	plain      TextExtractor
}

// NewRegistry creates a registry with the built-in extractors
func NewRegistry() *Registry {
	registry := &Registry{
		extractors: make([]TextExtractor, 0),
	}

	registry.Register(NewPDFExtractor())
	registry.Register(NewHTMLExtractor())
	registry.Register(NewCaptionExtractor())

	// Plain text is the fallback
	registry.plain = NewPlainExtractor()

	return registry
}

// Register registers a new extractor ahead of the fallback
func (r *Registry) Register(e TextExtractor) {
	r.extractors = append(r.extractors, e)
}

// FindExtractor returns the first extractor claiming the file
func (r *Registry) FindExtractor(name string, contentType string) TextExtractor {
	for _, e := range r.extractors {
		if e.CanHandle(name, contentType) {
			return e
		}
	}
	return r.plain
}

// Extract returns the plain text of an uploaded transcript
func (r *Registry) Extract(f model.TranscriptFile) (string, error) {
	e := r.FindExtractor(f.Name, f.ContentType)
	text, err := e.ExtractText(f.Data)
	if err != nil {
		return "", fmt.Errorf("%s extractor: %w", e.Name(), err)
	}
	text = normalizeText(text)
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%s extractor: document has no text", e.Name())
	}
	return text, nil
}

// PlainExtractor reads UTF-8 text as-is
type PlainExtractor struct{}

// NewPlainExtractor creates a plain text extractor
func NewPlainExtractor() *PlainExtractor {
	return &PlainExtractor{}
}

// Name returns "plain"
func (p *PlainExtractor) Name() string {
	return "plain"
}

// CanHandle accepts anything
func (p *PlainExtractor) CanHandle(name string, contentType string) bool {
	return true
}

// ExtractText validates the encoding
func (p *PlainExtractor) ExtractText(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("not valid UTF-8 text (binary formats other than PDF are not supported)")
	}
	return string(data), nil
}

func hasExt(name string, exts ...string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

// normalizeText unifies line endings and trims trailing whitespace
func normalizeText(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	content = strings.TrimPrefix(content, "\ufeff")
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.Join(lines, "\n")
}
