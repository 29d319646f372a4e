package model

import "time"

// FileStatus tracks one uploaded transcript through ingestion
type FileStatus string

const (
	FilePending     FileStatus = "pending"
	FileExtracting  FileStatus = "extracting"
	FileClassifying FileStatus = "classifying"
	FileCompleted   FileStatus = "completed"
	FileFailed      FileStatus = "failed"
)

// Outcome is the aggregated alignment of an assumption across interviews
type Outcome string

const (
	OutcomeAligned    Outcome = "aligned"
	OutcomeMisaligned Outcome = "misaligned"
	OutcomeNewData    Outcome = "new_data"
	OutcomePending    Outcome = "pending"
)

// Label returns the coarse label shown to users
func (o Outcome) Label() string {
	switch o {
	case OutcomeAligned:
		return "Aligned"
	case OutcomeMisaligned:
		return "Misaligned"
	case OutcomeNewData:
		return "New Data Added"
	default:
		return "Pending"
	}
}

// TranscriptFile is one uploaded document handed to ingestion
type TranscriptFile struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type,omitempty"`
	Data        []byte `json:"-"`
}

// FileResult reports the ingestion outcome of a single file
type FileResult struct {
	Name         string         `json:"name"`
	Status       FileStatus     `json:"status"`
	Chunks       int            `json:"chunks"`
	QuoteCount   int            `json:"quote_count"`
	DroppedCount int            `json:"dropped_count"`
	FailedChunks int            `json:"failed_chunks,omitempty"`
	Quotes       []Quote        `json:"quotes,omitempty"`
	Counts       map[string]int `json:"counts,omitempty"`
	Elapsed      time.Duration  `json:"elapsed"`
	Error        string         `json:"error,omitempty"`
}

// IngestionBatch is created at request start and discarded after the response
type IngestionBatch struct {
	ID               string             `json:"id"`
	StartedAt        time.Time          `json:"started_at"`
	Elapsed          time.Duration      `json:"elapsed"`
	Mode             string             `json:"mode"`
	Files            []FileResult       `json:"files"`
	AggregatedQuotes map[string][]Quote `json:"aggregated_quotes_by_assumption"`
	Outcomes         map[string]Outcome `json:"outcomes"`
	TimedOut         bool               `json:"timed_out,omitempty"`
}

// CountByStatus returns how many files ended in the given status
func (b *IngestionBatch) CountByStatus(status FileStatus) int {
	n := 0
	for _, f := range b.Files {
		if f.Status == status {
			n++
		}
	}
	return n
}

// TotalQuotes sums aggregated quotes across assumptions
func (b *IngestionBatch) TotalQuotes() int {
	n := 0
	for _, qs := range b.AggregatedQuotes {
		n += len(qs)
	}
	return n
}
