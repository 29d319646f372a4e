package llm

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/ppiankov/vouch/internal/logging"
	"github.com/ppiankov/vouch/internal/metrics"
	"github.com/ppiankov/vouch/internal/worker"
)

// Service wraps a Provider with client-side rate limiting and metrics.
// It satisfies Provider itself, so callers never see the difference.
type Service struct {
	provider Provider
	limiter  *worker.Limiter
	metrics  *metrics.Metrics
	log      zerolog.Logger
}

// NewService wraps provider. A nil limiter disables rate limiting and nil
// metrics fall back to the default registry.
func NewService(provider Provider, limiter *worker.Limiter, m *metrics.Metrics) *Service {
	if m == nil {
		m = metrics.DefaultMetrics
	}
	return &Service{
		provider: provider,
		limiter:  limiter,
		metrics:  m,
		log:      logging.WithComponent("llm").With().Str("provider", provider.Name()).Logger(),
	}
}

// Name returns the wrapped provider name
func (s *Service) Name() string {
	return s.provider.Name()
}

// IsAvailable delegates to the wrapped provider
func (s *Service) IsAvailable(ctx context.Context) bool {
	return s.provider.IsAvailable(ctx)
}

// Complete waits for rate limit clearance and calls the provider
func (s *Service) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	name := s.provider.Name()

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx, name); err != nil {
			s.metrics.CompletionCalls.WithLabelValues(name, "rate_limited").Inc()
			return nil, err
		}
	}

	start := time.Now()
	resp, err := s.provider.Complete(ctx, req)
	elapsed := time.Since(start)

	status := "ok"
	if err != nil {
		status = "error"
	}
	s.metrics.CompletionCalls.WithLabelValues(name, status).Inc()
	s.metrics.CompletionLatency.WithLabelValues(name, status).Observe(elapsed.Seconds())

	if err != nil {
		s.log.Debug().Err(err).Dur("elapsed", elapsed).Msg("completion failed")
		return nil, err
	}

	s.metrics.CompletionTokens.WithLabelValues(name).Add(float64(resp.TokensUsed))
	s.log.Debug().
		Str("model", resp.Model).
		Int("tokens", resp.TokensUsed).
		Dur("elapsed", elapsed).
		Msg("completion")

	return resp, nil
}
