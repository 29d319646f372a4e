package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ppiankov/vouch/internal/model"
)

// Renderer writes validation reports and ingestion batches as JSON and
// Markdown, and prints short summaries for the terminal
type Renderer struct {
	includeQuotes bool
}

// NewRenderer creates a renderer. Without includeQuotes Markdown reports
// list counts only.
func NewRenderer(includeQuotes bool) *Renderer {
	return &Renderer{includeQuotes: includeQuotes}
}

// RenderJSON writes v as indented JSON to path ("-" for stdout)
func (r *Renderer) RenderJSON(v any, path string) error {
	return writeOutput(path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	})
}

// RenderValidationMarkdown writes a Markdown validation report to path
func (r *Renderer) RenderValidationMarkdown(report *model.ValidationReport, path string) error {
	return writeOutput(path, func(w io.Writer) error {
		_, err := io.WriteString(w, r.ValidationMarkdown(report))
		return err
	})
}

// RenderIngestionMarkdown writes a Markdown ingestion report to path
func (r *Renderer) RenderIngestionMarkdown(batch *model.IngestionBatch, path string) error {
	return writeOutput(path, func(w io.Writer) error {
		_, err := io.WriteString(w, r.IngestionMarkdown(batch))
		return err
	})
}

// ValidationMarkdown formats a validation report
func (r *Renderer) ValidationMarkdown(report *model.ValidationReport) string {
	var b strings.Builder

	b.WriteString("# Assumption Validation Report\n\n")
	fmt.Fprintf(&b, "- Generated: %s\n", report.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "- Namespace: `%s`\n", report.Namespace)
	if report.LLM != nil {
		fmt.Fprintf(&b, "- Analysis: %s", report.LLM.Provider)
		if report.LLM.Model != "" {
			fmt.Fprintf(&b, " / %s", report.LLM.Model)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "- Assumptions: %d (supported %d, contradicted %d, gap %d, partial %d, no evidence %d, failed %d)\n\n",
		len(report.Results),
		report.Count(model.StatusSupported),
		report.Count(model.StatusContradicted),
		report.Count(model.StatusGap),
		report.Count(model.StatusPartial),
		report.Count(model.StatusNoEvidence),
		report.Count(model.StatusFailed))

	for _, res := range report.Results {
		v := res.Verdict
		fmt.Fprintf(&b, "## %s: %s\n\n", res.Assumption.ID, res.Assumption.Text)
		if res.Assumption.AttributeType != "" {
			fmt.Fprintf(&b, "*%s* · ", res.Assumption.AttributeType.DisplayName())
		}
		fmt.Fprintf(&b, "**%s** · %s\n\n", verdictLabel(v), res.Status)

		if v.Summary != "" {
			fmt.Fprintf(&b, "%s\n\n", v.Summary)
		}
		if v.GapReasoning != "" {
			fmt.Fprintf(&b, "**Gap:** %s\n\n", v.GapReasoning)
		}
		if v.FoundInstead != "" {
			fmt.Fprintf(&b, "**Found instead:** %s\n\n", v.FoundInstead)
		}

		if r.includeQuotes && len(res.Quotes) > 0 {
			b.WriteString("| # | Quote | Speaker | Source | Score |\n")
			b.WriteString("|---|-------|---------|--------|-------|\n")
			for i, q := range res.Quotes {
				fmt.Fprintf(&b, "| %d | %s | %s | %s | %.2f |\n",
					i+1, escapeCell(q.Text), escapeCell(speaker(q)), escapeCell(q.Source), q.CompositeScore)
			}
			b.WriteString("\n")
		} else {
			fmt.Fprintf(&b, "%d of %d candidates ranked.\n\n", len(res.Quotes), res.Candidates)
		}

		for _, w := range res.Warnings {
			fmt.Fprintf(&b, "> ⚠ %s\n", w)
		}
		if len(res.Warnings) > 0 {
			b.WriteString("\n")
		}
	}

	return b.String()
}

// IngestionMarkdown formats an ingestion batch
func (r *Renderer) IngestionMarkdown(batch *model.IngestionBatch) string {
	var b strings.Builder

	b.WriteString("# Interview Ingestion Report\n\n")
	fmt.Fprintf(&b, "- Batch: `%s` (%s mode)\n", batch.ID, batch.Mode)
	fmt.Fprintf(&b, "- Started: %s, took %s\n", batch.StartedAt.Format("2006-01-02 15:04:05 MST"), batch.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(&b, "- Files: %d completed, %d failed\n", batch.CountByStatus(model.FileCompleted), batch.CountByStatus(model.FileFailed))
	if batch.TimedOut {
		b.WriteString("- **Batch deadline reached; results are partial**\n")
	}
	b.WriteString("\n## Files\n\n")
	b.WriteString("| File | Status | Chunks | Quotes | Dropped | Note |\n")
	b.WriteString("|------|--------|--------|--------|---------|------|\n")
	for _, f := range batch.Files {
		fmt.Fprintf(&b, "| %s | %s | %d | %d | %d | %s |\n",
			escapeCell(f.Name), f.Status, f.Chunks, f.QuoteCount, f.DroppedCount, escapeCell(f.Error))
	}

	b.WriteString("\n## Assumptions\n\n")
	for _, id := range sortedKeys(batch.AggregatedQuotes) {
		quotes := batch.AggregatedQuotes[id]
		fmt.Fprintf(&b, "### %s: %s (%d quotes)\n\n", id, batch.Outcomes[id].Label(), len(quotes))
		if !r.includeQuotes {
			continue
		}
		for _, q := range quotes {
			label := string(q.Classification)
			if label == "" {
				label = "UNCLASSIFIED"
			}
			fmt.Fprintf(&b, "- `%s` “%s” (%s, %s)\n", label, q.Text, speaker(q), q.Source)
		}
		if len(quotes) > 0 {
			b.WriteString("\n")
		}
	}

	return b.String()
}

// PrintValidationSummary writes one line per assumption
func (r *Renderer) PrintValidationSummary(w io.Writer, report *model.ValidationReport) {
	fmt.Fprintf(w, "\n")
	for _, res := range report.Results {
		fmt.Fprintf(w, "  %-12s %-10s %s\n", verdictLabel(res.Verdict), res.Assumption.ID, truncate(res.Assumption.Text, 60))
	}
	fmt.Fprintf(w, "\n  %d assumptions in %s\n\n", len(report.Results), report.Elapsed.Round(time.Millisecond))
}

// PrintIngestionSummary writes per-file and per-assumption totals
func (r *Renderer) PrintIngestionSummary(w io.Writer, batch *model.IngestionBatch) {
	fmt.Fprintf(w, "\n")
	for _, f := range batch.Files {
		mark := "✓"
		if f.Status == model.FileFailed {
			mark = "✗"
		}
		fmt.Fprintf(w, "  %s %-30s %3d quotes", mark, truncate(f.Name, 30), f.QuoteCount)
		if f.Error != "" {
			fmt.Fprintf(w, "  (%s)", f.Error)
		}
		fmt.Fprintf(w, "\n")
	}
	fmt.Fprintf(w, "\n")
	for _, id := range sortedKeys(batch.AggregatedQuotes) {
		fmt.Fprintf(w, "  %-28s %-15s %d quotes\n", id, batch.Outcomes[id].Label(), len(batch.AggregatedQuotes[id]))
	}
	fmt.Fprintf(w, "\n")
}

func verdictLabel(v model.Verdict) string {
	switch {
	case v.Degraded:
		return "UNAVAILABLE"
	case v.SupportsAssumption && v.ContradictsAssumption:
		return "MIXED"
	case v.SupportsAssumption:
		return "SUPPORTED"
	case v.ContradictsAssumption:
		return "CONTRADICTED"
	default:
		return "UNSUPPORTED"
	}
}

func speaker(q model.Quote) string {
	switch {
	case q.Speaker != "" && q.Role != "":
		return q.Speaker + ", " + q.Role
	case q.Speaker != "":
		return q.Speaker
	case q.Role != "":
		return q.Role
	default:
		return "unknown"
	}
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func sortedKeys(m map[string][]model.Quote) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func writeOutput(path string, write func(io.Writer) error) (err error) {
	if path == "-" {
		return write(os.Stdout)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()
	return write(f)
}
