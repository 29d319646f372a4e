// Package api exposes validation and ingestion over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/ppiankov/vouch/internal/logging"
	"github.com/ppiankov/vouch/internal/model"
)

// Service is the part of the pipeline the HTTP surface needs
type Service interface {
	Validate(ctx context.Context, assumptions []model.Assumption) (*model.ValidationReport, error)
	ValidateCandidates(ctx context.Context, a model.Assumption, candidates []model.Quote) (model.AssumptionResult, error)
	Ingest(ctx context.Context, files []model.TranscriptFile, assumptions []model.Assumption) (*model.IngestionBatch, error)
	Ready(ctx context.Context) bool
}

// Options tunes the HTTP surface
type Options struct {
	Addr           string
	MaxUploadBytes int64
	Gatherer       prometheus.Gatherer
	Debug          bool
}

// Server serves the vouch HTTP API
type Server struct {
	server *http.Server
	router *gin.Engine
	log    zerolog.Logger
}

// NewServer wires the routes for svc
func NewServer(svc Service, opts Options) *Server {
	if opts.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 32 << 20
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}

	log := logging.WithComponent("api")
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(log))
	router.MaxMultipartMemory = opts.MaxUploadBytes

	h := NewHandlers(svc, opts.MaxUploadBytes)
	RegisterRoutes(router.Group("/v1"), h)
	router.GET("/healthz", h.HandleHealth)
	router.GET("/readyz", h.HandleReady)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))

	return &Server{
		router: router,
		log:    log,
		server: &http.Server{
			Addr:              opts.Addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}
}

// RegisterRoutes registers the /v1 endpoints on rg.
//
//	POST /v1/validate - validate assumptions
//	POST /v1/ingest   - ingest transcripts (multipart or JSON)
func RegisterRoutes(rg *gin.RouterGroup, h *Handlers) {
	rg.POST("/validate", h.HandleValidate)
	rg.POST("/ingest", h.HandleIngest)
}

// Handler returns the router, mostly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe blocks until the server stops. A graceful shutdown
// returns nil.
func (s *Server) ListenAndServe() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("starting HTTP server")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	}
}
