package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/ppiankov/vouch/internal/embedding"
	"github.com/ppiankov/vouch/internal/index"
	"github.com/ppiankov/vouch/internal/llm"
	"github.com/ppiankov/vouch/internal/metrics"
	"github.com/ppiankov/vouch/internal/model"
)

const approvalTranscript = `Dana: As managing partner I approve every software purchase over $500. Our office manager usually does the research and brings me two or three options, and I sign off after a demo. We have 14 attorneys and 9 paralegals across two offices.`

const approvalQuote = "As managing partner I approve every software purchase over $500"

var partners = model.Assumption{
	ID:            "a1",
	AttributeType: model.AttrBuyerTitles,
	Text:          "Managing partners approve software purchases",
}

// fakeLLM answers each pipeline prompt by its shape
func fakeLLM() *llm.MockProvider {
	return &llm.MockProvider{Handler: func(req llm.CompletionRequest) (string, error) {
		switch {
		case strings.Contains(req.Prompt, "Transcript excerpt"):
			return fmt.Sprintf(`{"quotes": [{"text": %q, "speaker": "Dana", "role": "Managing Partner", "specificity": 8}]}`, approvalQuote), nil
		case strings.Contains(req.Prompt, `"classifications"`):
			return `["ALIGNED"]`, nil
		case strings.Contains(req.Prompt, `{"indices"`):
			return `{"indices": [1]}`, nil
		default:
			return `{"supports_assumption": true, "contradicts_assumption": false,
				"gap_reasoning": "", "found_instead": "", "summary": "Partners sign off on purchases.",
				"quote_assessments": [{"quote": "As managing partner I approve", "supports": true, "contradicts": false, "reason": "direct"}]}`, nil
		}
	}}
}

func testConfig() *model.Config {
	cfg := model.DefaultConfig()
	cfg.LLM.Provider = "mock"
	cfg.LLM.Model = "scripted"
	cfg.Index.Backend = "memory"
	cfg.Ranking.MinSimilarityScore = 0
	cfg.Ingestion.MinChunkLength = 50
	return cfg
}

func testServices(provider llm.Provider) Services {
	return Services{
		Provider: provider,
		Embedder: embedding.NewHashEmbedder(64),
		Index:    index.NewMemoryIndex(),
	}
}

func TestNewWithServices_NoServices(t *testing.T) {
	_, err := NewWithServices(testConfig(), Services{}, metrics.NewTestMetrics())
	if !errors.Is(err, model.ErrNoServices) {
		t.Errorf("Expected ErrNoServices, got %v", err)
	}
}

func TestBuildServices_NothingConfigured(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Embeddings.Provider = ""

	_, err := BuildServices(context.Background(), cfg, metrics.NewTestMetrics())
	if !errors.Is(err, model.ErrNoServices) {
		t.Errorf("Expected ErrNoServices, got %v", err)
	}
}

func TestBuildServices_LocalStack(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Embeddings.Provider = "hash"
	cfg.Embeddings.Dimension = 32
	cfg.Index.Backend = "sqlite"
	cfg.Index.SQLitePath = filepath.Join(t.TempDir(), "index.db")
	cfg.Cache.Dir = filepath.Join(t.TempDir(), "cache")

	s, err := BuildServices(context.Background(), cfg, metrics.NewTestMetrics())
	if err != nil {
		t.Fatalf("BuildServices failed: %v", err)
	}
	p, err := NewWithServices(cfg, s, metrics.NewTestMetrics())
	if err != nil {
		t.Fatalf("NewWithServices failed: %v", err)
	}
	defer func() { _ = p.Close() }()

	if s.Provider != nil {
		t.Error("Expected no completion provider")
	}
	if s.Embedder == nil || s.Index == nil || s.Cache == nil {
		t.Errorf("Expected embedder, index and cache, got %+v", s)
	}

	_, err = p.Ingest(context.Background(), nil, nil)
	if !errors.Is(err, model.ErrNoServices) {
		t.Errorf("Expected ingestion without a provider to fail with ErrNoServices, got %v", err)
	}
}

func TestPipeline_IngestThenValidate(t *testing.T) {
	cfg := testConfig()
	mock := fakeLLM()
	p, err := NewWithServices(cfg, testServices(mock), metrics.NewTestMetrics())
	if err != nil {
		t.Fatalf("NewWithServices failed: %v", err)
	}
	ctx := context.Background()

	files := []model.TranscriptFile{{Name: "dana.txt", Data: []byte(approvalTranscript)}}
	batch, err := p.Ingest(ctx, files, []model.Assumption{partners})
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if batch.Outcomes["a1"] != model.OutcomeAligned {
		t.Fatalf("Expected aligned outcome, got %s (files %+v)", batch.Outcomes["a1"], batch.Files)
	}

	report, err := p.Validate(ctx, []model.Assumption{partners})
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if len(report.Results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(report.Results))
	}

	res := report.Results[0]
	if res.Status != model.StatusSupported {
		t.Fatalf("Expected supported, got %s (warnings %v)", res.Status, res.Warnings)
	}
	if len(res.Quotes) != 1 || res.Quotes[0].Text != approvalQuote || res.Quotes[0].Source != "dana.txt" {
		t.Errorf("Expected the ingested quote to be retrieved, got %+v", res.Quotes)
	}
	if !res.Verdict.SupportsAssumption {
		t.Error("Expected a supporting verdict")
	}
	if report.LLM == nil || report.LLM.Provider != "mock" || report.LLM.Model != "scripted" {
		t.Errorf("Unexpected LLM info %+v", report.LLM)
	}
}

func TestPipeline_ValidateCandidates(t *testing.T) {
	p, err := NewWithServices(testConfig(), Services{Provider: fakeLLM()}, metrics.NewTestMetrics())
	if err != nil {
		t.Fatalf("NewWithServices failed: %v", err)
	}

	res, err := p.ValidateCandidates(context.Background(), partners, []model.Quote{
		{Text: approvalQuote, Speaker: "Dana", Role: "Managing Partner", Source: "call-1"},
	})
	if err != nil {
		t.Fatalf("ValidateCandidates failed: %v", err)
	}
	if res.Status != model.StatusSupported || len(res.Quotes) != 1 {
		t.Errorf("Expected supplied candidate to be ranked, got %+v", res)
	}

	_, err = p.ValidateCandidates(context.Background(), model.Assumption{ID: "x"}, nil)
	if !errors.Is(err, model.ErrInvalidAssumptions) {
		t.Errorf("Expected ErrInvalidAssumptions, got %v", err)
	}
}

func TestPipeline_VerdictRetriedOnTransientFailure(t *testing.T) {
	base := fakeLLM()
	var failed bool
	provider := &llm.MockProvider{Handler: func(req llm.CompletionRequest) (string, error) {
		if strings.Contains(req.Prompt, "Transcript excerpt") || strings.Contains(req.Prompt, `{"indices"`) || failed {
			return base.Handler(req)
		}
		failed = true
		return "", &llm.StatusError{Code: 502, Message: "bad gateway"}
	}}
	cfg := testConfig()
	cfg.LLM.RetryBaseDelayMs = 1
	m := metrics.NewTestMetrics()

	p, err := NewWithServices(cfg, Services{Provider: provider}, m)
	if err != nil {
		t.Fatalf("NewWithServices failed: %v", err)
	}

	res, err := p.ValidateCandidates(context.Background(), partners, []model.Quote{
		{Text: approvalQuote, Speaker: "Dana", Role: "Managing Partner", Source: "call-1"},
	})
	if err != nil {
		t.Fatalf("ValidateCandidates failed: %v", err)
	}
	if res.Verdict.Degraded || !res.Verdict.SupportsAssumption {
		t.Errorf("Expected retried verdict to succeed, got %+v", res.Verdict)
	}
	if got := testutil.ToFloat64(m.Retries.WithLabelValues("verdict")); got != 1 {
		t.Errorf("Expected 1 verdict retry, got %v", got)
	}
}

func TestPipeline_IngestSources(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/robots.txt":
			http.NotFound(w, r)
		case "/interviews/dana":
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			_, _ = fmt.Fprint(w, approvalTranscript)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	dir := t.TempDir()
	local := filepath.Join(dir, "sam.txt")
	if err := os.WriteFile(local, []byte(approvalTranscript), 0o644); err != nil {
		t.Fatal(err)
	}

	p, err := NewWithServices(testConfig(), testServices(fakeLLM()), metrics.NewTestMetrics())
	if err != nil {
		t.Fatalf("NewWithServices failed: %v", err)
	}

	sources := []string{local, server.URL + "/interviews/dana", filepath.Join(dir, "missing.txt")}
	batch, err := p.IngestSources(context.Background(), sources, []model.Assumption{partners})
	if err != nil {
		t.Fatalf("IngestSources failed: %v", err)
	}

	if len(batch.Files) != 3 {
		t.Fatalf("Expected 3 file results, got %d", len(batch.Files))
	}
	if batch.Files[0].Name != "sam.txt" || batch.Files[0].Status != model.FileCompleted {
		t.Errorf("Unexpected local file result %+v", batch.Files[0])
	}
	if batch.Files[1].Name != "dana.txt" || batch.Files[1].Status != model.FileCompleted {
		t.Errorf("Unexpected fetched file result %+v", batch.Files[1])
	}
	if batch.Files[2].Status != model.FileFailed {
		t.Errorf("Expected missing file to fail, got %+v", batch.Files[2])
	}
	// Same text from two files is kept once
	if n := len(batch.AggregatedQuotes["a1"]); n != 1 {
		t.Errorf("Expected 1 aggregated quote, got %d", n)
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if got := ExpandHome("~/.vouch/index.db"); got != filepath.Join(home, ".vouch/index.db") {
		t.Errorf("Unexpected expansion %q", got)
	}
	if got := ExpandHome("/tmp/index.db"); got != "/tmp/index.db" {
		t.Errorf("Expected absolute path unchanged, got %q", got)
	}
}
