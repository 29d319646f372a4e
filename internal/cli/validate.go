package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/vouch/internal/metrics"
	"github.com/ppiankov/vouch/internal/pipeline"
	"github.com/ppiankov/vouch/internal/validate"
)

var (
	validateJSON    string
	validateMD      string
	validateTimeout time.Duration
)

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate <assumptions.yaml>",
	Short: "Validate assumptions against ingested interview quotes",
	Long: `Validate retrieves interview quotes for each assumption, filters out
quotes that do not speak to the assumption's attribute, ranks the rest and
asks the language model for a gap analysis.

Assumptions are read from YAML or JSON, either as a list or under an
"assumptions" key:

  - id: buyer
    attribute_type: buyer-titles
    text: Managing partners approve software purchases

Example:
  vouch validate assumptions.yaml
  vouch validate assumptions.yaml --json report.json --md report.md`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVar(&validateJSON, "json", "-", "output JSON path (- for stdout, empty to skip)")
	validateCmd.Flags().StringVar(&validateMD, "md", "", "output Markdown path (optional)")
	validateCmd.Flags().DurationVar(&validateTimeout, "timeout", 5*time.Minute, "overall validation timeout")
}

func runValidate(cmd *cobra.Command, args []string) (err error) {
	assumptions, err := validate.LoadAssumptions(args[0])
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), validateTimeout)
	defer cancel()

	if verbose {
		fmt.Fprintf(os.Stderr, "Validating %d assumptions\n", len(assumptions))
		fmt.Fprintf(os.Stderr, "LLM: %s %s\n", valueOr(cfg.LLM.Provider, "disabled"), cfg.LLM.Model)
		fmt.Fprintf(os.Stderr, "Index: %s\n", cfg.Index.Backend)
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

	report, err := p.Validate(ctx, assumptions)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	r := p.Renderer()
	if validateJSON != "" {
		if err := r.RenderJSON(report, validateJSON); err != nil {
			return fmt.Errorf("write JSON report: %w", err)
		}
	}
	if validateMD != "" {
		if err := r.RenderValidationMarkdown(report, validateMD); err != nil {
			return fmt.Errorf("write Markdown report: %w", err)
		}
	}

	r.PrintValidationSummary(os.Stderr, report)
	return nil
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
