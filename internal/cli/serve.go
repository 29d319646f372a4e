package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/vouch/internal/api"
	"github.com/ppiankov/vouch/internal/metrics"
	"github.com/ppiankov/vouch/internal/pipeline"
)

var (
	serveAddr      string
	serveMaxUpload int64
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the validation and ingestion HTTP API",
	Long: `Serve exposes Vouch over HTTP:

  POST /v1/validate  validate assumptions (optionally against given candidates)
  POST /v1/ingest    ingest transcripts (multipart "files" or JSON)
  GET  /healthz      liveness
  GET  /readyz       readiness of the configured services
  GET  /metrics      Prometheus metrics

Example:
  vouch serve --addr :8080`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config, :8080)")
	serveCmd.Flags().Int64Var(&serveMaxUpload, "max-upload", 32<<20, "max request body bytes for ingestion")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}

func runServe(cmd *cobra.Command, args []string) (err error) {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p, err := pipeline.NewPipeline(ctx, cfg, metrics.DefaultMetrics)
	if err != nil {
		return fmt.Errorf("initialize pipeline: %w", err)
	}
	defer func() {
		if closeErr := p.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close pipeline: %w", closeErr)
		}
	}()

	srv := api.NewServer(p, api.Options{
		Addr:           cfg.Server.Addr,
		MaxUploadBytes: serveMaxUpload,
		Gatherer:       prometheus.DefaultGatherer,
		Debug:          verbose,
	})

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
