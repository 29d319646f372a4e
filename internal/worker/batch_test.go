package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/vouch/internal/model"
)

// mockFileProcessor implements FileProcessor
type mockFileProcessor struct {
	failNames map[string]bool
	panics    bool
}

func (m *mockFileProcessor) ProcessFile(ctx context.Context, file model.TranscriptFile) *model.FileResult {
	time.Sleep(5 * time.Millisecond) // Simulate work
	if m.panics {
		panic("boom")
	}
	if m.failNames[file.Name] {
		return &model.FileResult{Name: file.Name, Status: model.FileFailed, Error: "extract failed"}
	}
	return &model.FileResult{Name: file.Name, Status: model.FileCompleted, QuoteCount: 2}
}

func files(names ...string) []model.TranscriptFile {
	out := make([]model.TranscriptFile, len(names))
	for i, n := range names {
		out[i] = model.TranscriptFile{Name: n, ContentType: "text/plain", Data: []byte("hello")}
	}
	return out
}

func TestBatchProcessor_ProcessFiles(t *testing.T) {
	processor := NewBatchProcessor(&mockFileProcessor{}, 2)

	results := processor.ProcessFiles(context.Background(), files("a.txt", "b.txt", "c.txt", "d.txt"))

	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	for i, name := range []string{"a.txt", "b.txt", "c.txt", "d.txt"} {
		if results[i].Name != name {
			t.Errorf("expected %s at index %d, got %s", name, i, results[i].Name)
		}
		if results[i].Status != model.FileCompleted {
			t.Errorf("expected completed for %s, got %s", name, results[i].Status)
		}
	}
}

func TestBatchProcessor_FailureIsolated(t *testing.T) {
	processor := NewBatchProcessor(&mockFileProcessor{failNames: map[string]bool{"bad.txt": true}}, 3)

	results := processor.ProcessFiles(context.Background(), files("good1.txt", "bad.txt", "good2.txt"))

	if results[1].Status != model.FileFailed {
		t.Errorf("expected bad.txt to fail, got %s", results[1].Status)
	}
	if results[0].Status != model.FileCompleted || results[2].Status != model.FileCompleted {
		t.Error("sibling files should complete")
	}
}

func TestBatchProcessor_PanicFailsFile(t *testing.T) {
	processor := NewBatchProcessor(&mockFileProcessor{panics: true}, 1)

	results := processor.ProcessFiles(context.Background(), files("x.txt"))

	if results[0].Status != model.FileFailed {
		t.Fatalf("expected failed status, got %s", results[0].Status)
	}
	if !strings.Contains(results[0].Error, "panic") {
		t.Errorf("expected panic in error, got %q", results[0].Error)
	}
}

func TestBatchProcessor_Empty(t *testing.T) {
	processor := NewBatchProcessor(&mockFileProcessor{}, 2)

	results := processor.ProcessFiles(context.Background(), nil)
	if len(results) != 0 {
		t.Errorf("expected 0 results, got %d", len(results))
	}
}

func TestFileJobResult_GetError(t *testing.T) {
	ok := &FileJobResult{Result: &model.FileResult{Name: "a", Status: model.FileCompleted}}
	if ok.GetError() != nil {
		t.Errorf("expected nil error, got %v", ok.GetError())
	}

	failed := &FileJobResult{Result: &model.FileResult{Name: "a", Status: model.FileFailed, Error: "x"}}
	if !errors.Is(failed.GetError(), model.ErrFileFailure) {
		t.Errorf("expected ErrFileFailure, got %v", failed.GetError())
	}
}

func TestReadPathsFromFile(t *testing.T) {
	dir := t.TempDir()
	content := "call-1.txt\n# comment\n\n   call-2.vtt  \ncall-1.txt\n/abs/call-3.pdf\n"
	list := filepath.Join(dir, "list.txt")
	if err := os.WriteFile(list, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	paths, err := ReadPathsFromFile(list)
	if err != nil {
		t.Fatalf("ReadPathsFromFile failed: %v", err)
	}

	expected := []string{filepath.Join(dir, "call-1.txt"), filepath.Join(dir, "call-2.vtt"), "/abs/call-3.pdf"}
	if len(paths) != len(expected) {
		t.Fatalf("expected %d paths, got %d: %v", len(expected), len(paths), paths)
	}
	for i := range expected {
		if paths[i] != expected[i] {
			t.Errorf("expected %s at index %d, got %s", expected[i], i, paths[i])
		}
	}
}

func TestReadPathsFromFile_NonExistent(t *testing.T) {
	if _, err := ReadPathsFromFile("non_existent_file.txt"); err == nil {
		t.Error("expected error for non-existent file, got nil")
	}
}

func TestLoadFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "interview.html")
	if err := os.WriteFile(path, []byte("<p>hi</p>"), 0o644); err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadFiles([]string{path})
	if err != nil {
		t.Fatalf("LoadFiles failed: %v", err)
	}
	if loaded[0].Name != "interview.html" || loaded[0].ContentType != "text/html" {
		t.Errorf("unexpected file: %+v", loaded[0])
	}

	if _, err := LoadFiles([]string{filepath.Join(dir, "missing.txt")}); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestContentTypeFor(t *testing.T) {
	tests := map[string]string{
		"a.txt":  "text/plain",
		"a.VTT":  "text/plain",
		"a.html": "text/html",
		"a.pdf":  "application/pdf",
		"a":      "text/plain",
	}
	for name, want := range tests {
		if got := ContentTypeFor(name); got != want {
			t.Errorf("ContentTypeFor(%q) = %q, want %q", name, got, want)
		}
	}
}
