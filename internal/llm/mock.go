package llm

import (
	"context"
	"errors"
	"sync"
)

// MockProvider is a scripted Provider for tests. Handler takes precedence;
// otherwise Responses are returned in order (the last one repeats) and Err
// is returned when set.
type MockProvider struct {
	Handler   func(req CompletionRequest) (string, error)
	Responses []string
	Err       error

	mu    sync.Mutex
	calls []CompletionRequest
}

// Name returns "mock"
func (m *MockProvider) Name() string {
	return "mock"
}

// IsAvailable always returns true
func (m *MockProvider) IsAvailable(ctx context.Context) bool {
	return true
}

// Complete records the request and returns the scripted answer
func (m *MockProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	m.mu.Lock()
	n := len(m.calls)
	m.calls = append(m.calls, req)
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if m.Handler != nil {
		text, err := m.Handler(req)
		if err != nil {
			return nil, err
		}
		return &CompletionResponse{Text: text, Model: "mock"}, nil
	}

	if m.Err != nil {
		return nil, m.Err
	}
	if len(m.Responses) == 0 {
		return nil, errors.New("mock: no scripted response")
	}
	if n >= len(m.Responses) {
		n = len(m.Responses) - 1
	}
	return &CompletionResponse{Text: m.Responses[n], Model: "mock"}, nil
}

// Calls returns a copy of every request received
func (m *MockProvider) Calls() []CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]CompletionRequest, len(m.calls))
	copy(out, m.calls)
	return out
}
