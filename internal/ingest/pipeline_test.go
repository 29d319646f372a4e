package ingest

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/ppiankov/vouch/internal/llm"
	"github.com/ppiankov/vouch/internal/metrics"
	"github.com/ppiankov/vouch/internal/model"
)

const greeting = `Interviewer: Hi there! Good morning. How are you doing today?

Dana: I'm good, thanks, and you? Can you hear me?

Interviewer: Yes, loud and clear. Thanks for joining us today, we really appreciate it.

Dana: Sure. Great. Let me share my screen. Okay.

Interviewer: Perfect. Is it okay if I record this call for our notes?

Dana: Yeah. Sure. Sounds good.`

const intake = `Dana: Our biggest problem is intake. We spend about 10 hours a week re-typing client details from the web form into our case management system, and the paralegals hate it. Last quarter we lost two clients because nobody called them back within a day.`

const approval = `Dana: As managing partner I approve every software purchase over $500. Our office manager usually does the research and brings me two or three options, and I sign off after a demo. We have 14 attorneys and 9 paralegals across two offices.`

var transcript = greeting + "\n\n\n" + intake + "\n\n" + approval

const (
	intakeQuote   = "We spend about 10 hours a week re-typing client details from the web form"
	approvalQuote = "As managing partner I approve every software purchase over $500"
)

var painAssumption = model.Assumption{
	ID:            "a1",
	AttributeType: model.AttrPainPoints,
	Text:          "Manual client intake is the biggest time sink for small firms",
}

// script answers extraction calls by chunk marker and classification calls
// by quote marker
type script struct {
	quotes map[string]string
	labels map[string]model.Classification
	fail   map[string]error
}

var numberedQuote = regexp.MustCompile(`(?m)^(\d+)\. "(.*)"$`)

func defaultScript() *script {
	return &script{
		quotes: map[string]string{
			"re-typing client details": fmt.Sprintf(`{"quotes": [{"text": %q, "speaker": "Dana", "role": "Managing Partner", "specificity": 8}]}`, intakeQuote),
			"approve every software":   fmt.Sprintf(`{"quotes": [{"text": %q, "speaker": "Dana", "role": "Managing Partner", "specificity": 7}]}`, approvalQuote),
		},
		labels: map[string]model.Classification{
			"10 hours": model.ClassAligned,
			"approve":  model.ClassIrrelevant,
		},
		fail: map[string]error{},
	}
}

func (s *script) answer(req llm.CompletionRequest) (string, error) {
	if strings.Contains(req.Prompt, `"classifications"`) {
		var entries []string
		for _, m := range numberedQuote.FindAllStringSubmatch(req.Prompt, -1) {
			label := model.ClassNeutral
			for marker, l := range s.labels {
				if strings.Contains(m[2], marker) {
					label = l
				}
			}
			entries = append(entries, fmt.Sprintf(`{"index": %s, "label": %q}`, m[1], label))
		}
		return `{"classifications": [` + strings.Join(entries, ", ") + `]}`, nil
	}

	for marker, err := range s.fail {
		if strings.Contains(req.Prompt, marker) {
			return "", err
		}
	}
	for marker, out := range s.quotes {
		if strings.Contains(req.Prompt, marker) {
			return out, nil
		}
	}
	return `{"quotes": []}`, nil
}

func testIngestionConfig() model.IngestionConfig {
	cfg := model.DefaultConfig().Ingestion
	cfg.ChunkSize = len(greeting) + 1
	cfg.MinChunkLength = 50
	cfg.RetryBaseDelay = time.Millisecond
	cfg.BatchTimeout = 5 * time.Second
	return cfg
}

func newTestPipeline(s *script, cfg model.IngestionConfig) (*Pipeline, *llm.MockProvider, *metrics.Metrics) {
	mock := &llm.MockProvider{Handler: s.answer}
	m := metrics.NewTestMetrics()
	return NewPipeline(mock, nil, cfg, m), mock, m
}

func file(name, text string) model.TranscriptFile {
	return model.TranscriptFile{Name: name, Data: []byte(text)}
}

func TestPipeline_BoilerplateChunkYieldsNoQuotes(t *testing.T) {
	p, mock, _ := newTestPipeline(defaultScript(), testIngestionConfig())

	batch, err := p.Ingest(context.Background(), []model.TranscriptFile{file("dana.txt", transcript)}, []model.Assumption{painAssumption})
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	if batch.ID == "" || batch.Mode != ModeAssumptions {
		t.Errorf("Unexpected batch header %+v", batch)
	}
	if len(batch.Files) != 1 {
		t.Fatalf("Expected 1 file result, got %d", len(batch.Files))
	}

	f := batch.Files[0]
	if f.Status != model.FileCompleted {
		t.Fatalf("Expected completed, got %s (%s)", f.Status, f.Error)
	}
	if f.Chunks != 2 {
		t.Errorf("Expected the greeting chunk to be discarded leaving 2 chunks, got %d", f.Chunks)
	}
	for _, req := range mock.Calls() {
		if strings.Contains(req.Prompt, "Good morning") {
			t.Error("Expected no completion call for the boilerplate chunk")
		}
	}

	quotes := batch.AggregatedQuotes["a1"]
	if len(quotes) != 1 {
		t.Fatalf("Expected 1 aggregated quote, got %d: %+v", len(quotes), quotes)
	}
	q := quotes[0]
	if q.Text != intakeQuote || q.Source != "dana.txt" || q.Classification != model.ClassAligned {
		t.Errorf("Unexpected quote %+v", q)
	}
	if q.ID != RecordID("dana.txt", "a1", intakeQuote) {
		t.Errorf("Expected deterministic record id, got %s", q.ID)
	}
	if f.DroppedCount != 1 {
		t.Errorf("Expected the irrelevant quote to be dropped, got %d dropped", f.DroppedCount)
	}
	if f.Counts[string(model.ClassAligned)] != 1 {
		t.Errorf("Expected 1 aligned count, got %v", f.Counts)
	}
	if batch.Outcomes["a1"] != model.OutcomeAligned {
		t.Errorf("Expected aligned outcome, got %s", batch.Outcomes["a1"])
	}
}

func TestPipeline_FileFailureIsIsolated(t *testing.T) {
	p, _, m := newTestPipeline(defaultScript(), testIngestionConfig())

	files := []model.TranscriptFile{
		file("good.txt", transcript),
		{Name: "binary.txt", Data: []byte{0xff, 0xfe, 0x00, 0x01}},
		file("empty.txt", "   \n"),
	}

	batch, err := p.Ingest(context.Background(), files, []model.Assumption{painAssumption})
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	if len(batch.Files) != 3 {
		t.Fatalf("Expected 3 file results, got %d", len(batch.Files))
	}
	if batch.Files[0].Name != "good.txt" || batch.Files[0].Status != model.FileCompleted {
		t.Errorf("Expected good.txt completed, got %+v", batch.Files[0])
	}
	for _, f := range batch.Files[1:] {
		if f.Status != model.FileFailed {
			t.Errorf("Expected %s to fail, got %s", f.Name, f.Status)
		}
		if f.Error == "" || len(f.Quotes) != 0 {
			t.Errorf("Expected %s to carry an error and no quotes, got %+v", f.Name, f)
		}
	}
	if batch.CountByStatus(model.FileFailed) != 2 {
		t.Errorf("Expected 2 failed files")
	}
	if len(batch.AggregatedQuotes["a1"]) != 1 {
		t.Errorf("Expected sibling file quotes to survive, got %d", len(batch.AggregatedQuotes["a1"]))
	}
	if got := testutil.ToFloat64(m.FilesProcessed.WithLabelValues(string(model.FileFailed))); got != 2 {
		t.Errorf("Expected 2 failed files counted, got %v", got)
	}
}

func TestPipeline_RetriesTransientErrors(t *testing.T) {
	s := defaultScript()
	var calls int32
	mock := &llm.MockProvider{Handler: func(req llm.CompletionRequest) (string, error) {
		if strings.Contains(req.Prompt, "re-typing client details") && atomic.AddInt32(&calls, 1) == 1 {
			return "", &llm.StatusError{Code: 503, Message: "overloaded"}
		}
		return s.answer(req)
	}}
	m := metrics.NewTestMetrics()
	p := NewPipeline(mock, nil, testIngestionConfig(), m)

	batch, err := p.Ingest(context.Background(), []model.TranscriptFile{file("dana.txt", transcript)}, []model.Assumption{painAssumption})
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	f := batch.Files[0]
	if f.Status != model.FileCompleted || f.FailedChunks != 0 {
		t.Fatalf("Expected the retried chunk to succeed, got %+v", f)
	}
	if len(batch.AggregatedQuotes["a1"]) != 1 {
		t.Errorf("Expected the intake quote after retry")
	}
	if got := testutil.ToFloat64(m.Retries.WithLabelValues("extract")); got != 1 {
		t.Errorf("Expected 1 extraction retry, got %v", got)
	}
}

func TestPipeline_ChunkFailureContributesNothing(t *testing.T) {
	s := defaultScript()
	s.fail["re-typing client details"] = &llm.StatusError{Code: 401, Message: "bad key"}
	s.labels["approve"] = model.ClassNewInsight

	p, _, m := newTestPipeline(s, testIngestionConfig())

	batch, err := p.Ingest(context.Background(), []model.TranscriptFile{file("dana.txt", transcript)}, []model.Assumption{painAssumption})
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	f := batch.Files[0]
	if f.Status != model.FileCompleted {
		t.Fatalf("Expected completed, got %s (%s)", f.Status, f.Error)
	}
	if f.FailedChunks != 1 {
		t.Errorf("Expected 1 failed chunk, got %d", f.FailedChunks)
	}
	quotes := batch.AggregatedQuotes["a1"]
	if len(quotes) != 1 || quotes[0].Text != approvalQuote {
		t.Errorf("Expected only the approval quote, got %+v", quotes)
	}
	if batch.Outcomes["a1"] != model.OutcomeNewData {
		t.Errorf("Expected new_data outcome, got %s", batch.Outcomes["a1"])
	}
	if got := testutil.ToFloat64(m.Retries.WithLabelValues("extract")); got != 0 {
		t.Errorf("Expected auth errors not to be retried, got %v retries", got)
	}
}

func TestPipeline_AllExtractionsFailingFailsFile(t *testing.T) {
	s := defaultScript()
	s.fail["Transcript excerpt"] = errors.New("connection refused")
	cfg := testIngestionConfig()
	cfg.MaxRetries = 0

	p, _, _ := newTestPipeline(s, cfg)

	batch, err := p.Ingest(context.Background(), []model.TranscriptFile{file("dana.txt", transcript)}, []model.Assumption{painAssumption})
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if batch.Files[0].Status != model.FileFailed {
		t.Errorf("Expected failed file, got %s", batch.Files[0].Status)
	}
	if batch.Outcomes["a1"] != model.OutcomePending {
		t.Errorf("Expected pending outcome, got %s", batch.Outcomes["a1"])
	}
}

func TestPipeline_TopicMode(t *testing.T) {
	cfg := testIngestionConfig()
	cfg.Topics = []string{"pain_points", "Buyer Titles"}

	p, mock, _ := newTestPipeline(defaultScript(), cfg)

	batch, err := p.Ingest(context.Background(), []model.TranscriptFile{file("dana.txt", transcript)}, nil)
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	if batch.Mode != ModeTopics {
		t.Errorf("Expected topic mode, got %s", batch.Mode)
	}
	for _, id := range []string{"topic:pain-points", "topic:buyer-titles"} {
		if _, ok := batch.AggregatedQuotes[id]; !ok {
			t.Errorf("Expected aggregated entry for %s", id)
		}
		if _, ok := batch.Outcomes[id]; !ok {
			t.Errorf("Expected outcome for %s", id)
		}
	}
	for _, q := range batch.AggregatedQuotes["topic:buyer-titles"] {
		if q.AssumptionID != "topic:buyer-titles" || q.Topic != string(model.AttrBuyerTitles) {
			t.Errorf("Unexpected topic quote %+v", q)
		}
	}

	// 2 chunks × 2 topics, plus classification calls
	extractions := 0
	for _, req := range mock.Calls() {
		if strings.Contains(req.Prompt, "Transcript excerpt") {
			extractions++
		}
	}
	if extractions != 4 {
		t.Errorf("Expected 4 sequential extraction calls, got %d", extractions)
	}
}

func TestPipeline_InvalidInput(t *testing.T) {
	p, _, _ := newTestPipeline(defaultScript(), testIngestionConfig())
	files := []model.TranscriptFile{file("dana.txt", transcript)}

	_, err := p.Ingest(context.Background(), files, []model.Assumption{painAssumption, painAssumption})
	if !errors.Is(err, model.ErrInvalidAssumptions) {
		t.Errorf("Expected ErrInvalidAssumptions for duplicate ids, got %v", err)
	}

	cfg := testIngestionConfig()
	cfg.Topics = []string{"vibes"}
	p, _, _ = newTestPipeline(defaultScript(), cfg)
	_, err = p.Ingest(context.Background(), files, nil)
	if !errors.Is(err, model.ErrInvalidAssumptions) {
		t.Errorf("Expected ErrInvalidAssumptions for unknown topic, got %v", err)
	}
}

func TestPipeline_BatchTimeoutReturnsPartialResults(t *testing.T) {
	s := defaultScript()
	slow := approval + " We are the slow file."
	mock := &llm.MockProvider{Handler: func(req llm.CompletionRequest) (string, error) {
		if strings.Contains(req.Prompt, "slow file") {
			time.Sleep(300 * time.Millisecond)
		}
		return s.answer(req)
	}}
	cfg := testIngestionConfig()
	cfg.BatchTimeout = 150 * time.Millisecond
	p := NewPipeline(mock, nil, cfg, metrics.NewTestMetrics())

	files := []model.TranscriptFile{file("fast.txt", transcript), file("slow.txt", slow)}
	batch, err := p.Ingest(context.Background(), files, []model.Assumption{painAssumption})
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	if !batch.TimedOut {
		t.Error("Expected the batch to be marked as timed out")
	}
	if len(batch.Files) != 2 {
		t.Fatalf("Expected both files reported, got %d", len(batch.Files))
	}
	if batch.Files[0].Status != model.FileCompleted || batch.Files[0].QuoteCount != 1 {
		t.Errorf("Expected the fast file to keep its results, got %+v", batch.Files[0])
	}
	if batch.Files[1].Error == "" {
		t.Errorf("Expected the slow file to note the deadline, got %+v", batch.Files[1])
	}
}
