package worker

import (
	"bufio"
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/vouch/internal/model"
)

// FileProcessor runs ingestion for one transcript file. Implementations
// never return nil and report failures through the result status.
type FileProcessor interface {
	ProcessFile(ctx context.Context, file model.TranscriptFile) *model.FileResult
}

// FileJob represents one transcript file to ingest
type FileJob struct {
	Index     int
	File      model.TranscriptFile
	Processor FileProcessor
}

// Execute executes the file job. A panic inside the processor fails only
// this file.
func (j *FileJob) Execute(ctx context.Context) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = &FileJobResult{
				Index: j.Index,
				Result: &model.FileResult{
					Name:   j.File.Name,
					Status: model.FileFailed,
					Error:  fmt.Sprintf("%v: panic: %v", model.ErrFileFailure, r),
				},
			}
		}
	}()

	result := j.Processor.ProcessFile(ctx, j.File)
	if result == nil {
		result = &model.FileResult{
			Name:   j.File.Name,
			Status: model.FileFailed,
			Error:  model.ErrFileFailure.Error(),
		}
	}
	return &FileJobResult{Index: j.Index, Result: result}
}

// FileJobResult represents the result of a file job
type FileJobResult struct {
	Index  int
	Result *model.FileResult
}

// GetError returns an error when the file failed
func (r *FileJobResult) GetError() error {
	if r.Result.Status == model.FileFailed {
		return fmt.Errorf("%w: %s: %s", model.ErrFileFailure, r.Result.Name, r.Result.Error)
	}
	return nil
}

// BatchProcessor processes multiple transcript files concurrently
type BatchProcessor struct {
	processor   FileProcessor
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(processor FileProcessor, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		processor:   processor,
		concurrency: concurrency,
	}
}

// ProcessFiles processes files on a bounded pool and returns one result per
// file in input order
func (b *BatchProcessor) ProcessFiles(ctx context.Context, files []model.TranscriptFile) []*model.FileResult {
	if len(files) == 0 {
		return []*model.FileResult{}
	}

	jobs := make([]Job, len(files))
	for i, f := range files {
		jobs[i] = &FileJob{Index: i, File: f, Processor: b.processor}
	}

	out := make([]*model.FileResult, len(files))
	for _, r := range Run(ctx, b.concurrency, jobs) {
		fr := r.(*FileJobResult)
		out[fr.Index] = fr.Result
	}
	return out
}

// LoadFiles reads transcript files from disk. Content type is guessed
// from the extension.
func LoadFiles(paths []string) ([]model.TranscriptFile, error) {
	files := make([]model.TranscriptFile, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		files = append(files, model.TranscriptFile{
			Name:        filepath.Base(p),
			ContentType: ContentTypeFor(p),
			Data:        data,
		})
	}
	return files, nil
}

// ContentTypeFor maps a file name to a media type
func ContentTypeFor(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".txt", ".vtt", ".srt", ".md", "":
		return "text/plain"
	case ".htm", ".html":
		return "text/html"
	case ".pdf":
		return "application/pdf"
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "application/octet-stream"
}

// ReadPathsFromFile reads file paths from a list file (one per line).
// Relative paths resolve against the list file's directory.
func ReadPathsFromFile(listPath string) ([]string, error) {
	file, err := os.Open(listPath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	base := filepath.Dir(listPath)
	var paths []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !filepath.IsAbs(line) {
			line = filepath.Join(base, line)
		}
		if !seen[line] {
			seen[line] = true
			paths = append(paths, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return paths, nil
}
