package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/vouch/internal/metrics"
	"github.com/ppiankov/vouch/internal/model"
	"github.com/ppiankov/vouch/internal/pipeline"
	"github.com/ppiankov/vouch/internal/validate"
	"github.com/ppiankov/vouch/internal/worker"
)

var (
	ingestList        string
	ingestAssumptions string
	ingestTopics      []string
	ingestJSON        string
	ingestMD          string
	ingestConcurrency int
	ingestTimeout     time.Duration
)

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest [files or urls...]",
	Short: "Extract and classify quotes from interview transcripts",
	Long: `Ingest reads interview transcripts (plain text, VTT/SRT captions, HTML
or PDF), extracts verbatim customer quotes and classifies each one against
your assumptions. Classified quotes are embedded and stored in the vector
index so that "vouch validate" can retrieve them.

Without --assumptions the transcripts are mined per topic (pain points,
buyer titles, barriers...).

Example:
  vouch ingest interviews/*.txt --assumptions assumptions.yaml
  vouch ingest --list transcripts.txt --md ingest.md
  vouch ingest https://example.com/interview-dana.html --topics pain-points`,
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().StringVar(&ingestList, "list", "", "file with one path or URL per line")
	ingestCmd.Flags().StringVar(&ingestAssumptions, "assumptions", "", "assumptions YAML/JSON file (topic mode when empty)")
	ingestCmd.Flags().StringSliceVar(&ingestTopics, "topics", nil, "topics to mine in topic mode (default: all)")
	ingestCmd.Flags().StringVar(&ingestJSON, "json", "-", "output JSON path (- for stdout, empty to skip)")
	ingestCmd.Flags().StringVar(&ingestMD, "md", "", "output Markdown path (optional)")
	ingestCmd.Flags().IntVar(&ingestConcurrency, "concurrency", 0, "files processed in parallel (default from config)")
	ingestCmd.Flags().DurationVar(&ingestTimeout, "timeout", 0, "overall batch timeout (default from config)")
}

func runIngest(cmd *cobra.Command, args []string) (err error) {
	sources := append([]string{}, args...)
	if ingestList != "" {
		listed, err := worker.ReadPathsFromFile(ingestList)
		if err != nil {
			return err
		}
		sources = append(sources, listed...)
	}
	if len(sources) == 0 {
		return fmt.Errorf("no transcripts given: pass files, URLs or --list")
	}

	var assumptions []model.Assumption
	if ingestAssumptions != "" {
		assumptions, err = validate.LoadAssumptions(ingestAssumptions)
		if err != nil {
			return err
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if ingestConcurrency > 0 {
		cfg.Ingestion.Concurrency = ingestConcurrency
	}
	if ingestTimeout > 0 {
		cfg.Ingestion.BatchTimeout = ingestTimeout
	}
	if len(ingestTopics) > 0 {
		cfg.Ingestion.Topics = ingestTopics
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if verbose {
		fmt.Fprintf(os.Stderr, "Ingesting %d transcripts\n", len(sources))
		fmt.Fprintf(os.Stderr, "Concurrency: %d\n", cfg.Ingestion.Concurrency)
		fmt.Fprintf(os.Stderr, "Batch timeout: %v\n", cfg.Ingestion.BatchTimeout)
		fmt.Fprintln(os.Stderr)
	}

	p, err := pipeline.NewPipeline(ctx, cfg, metrics.DefaultMetrics)
	if err != nil {
		return fmt.Errorf("initialize pipeline: %w", err)
	}
	defer func() {
		if closeErr := p.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close pipeline: %w", closeErr)
		}
	}()

	batch, err := p.IngestSources(ctx, sources, assumptions)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	r := p.Renderer()
	if ingestJSON != "" {
		if err := r.RenderJSON(batch, ingestJSON); err != nil {
			return fmt.Errorf("write JSON report: %w", err)
		}
	}
	if ingestMD != "" {
		if err := r.RenderIngestionMarkdown(batch, ingestMD); err != nil {
			return fmt.Errorf("write Markdown report: %w", err)
		}
	}

	r.PrintIngestionSummary(os.Stderr, batch)
	return nil
}
