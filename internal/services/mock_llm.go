package services

import (
	"context"
	"sync"
)

// MockLLM is a mock implementation of LLMService for testing.
type MockLLM struct {
	InitModelFunc        func(ctx context.Context, modelName string) error
	GenerateResponseFunc func(ctx context.Context, req GenerateRequest) (string, error)

	// Track calls for testing
	InitModelCalls        []string
	GenerateResponseCalls []GenerateRequest

	mu sync.Mutex // protects all fields above
}

// NewMockLLM creates a new mock LLM service.
func NewMockLLM() *MockLLM {
	return &MockLLM{
		InitModelCalls:        make([]string, 0),
		GenerateResponseCalls: make([]GenerateRequest, 0),
	}
}

// InitModel mocks model initialization.
func (m *MockLLM) InitModel(ctx context.Context, modelName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.InitModelCalls = append(m.InitModelCalls, modelName)

	if m.InitModelFunc != nil {
		return m.InitModelFunc(ctx, modelName)
	}
	return nil
}

// GenerateResponse mocks completion generation.
func (m *MockLLM) GenerateResponse(ctx context.Context, req GenerateRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.GenerateResponseCalls = append(m.GenerateResponseCalls, req)

	if m.GenerateResponseFunc != nil {
		return m.GenerateResponseFunc(ctx, req)
	}
	return "Mock response", nil
}

// SetGenerateResponseError sets up the mock to fail on GenerateResponse.
func (m *MockLLM) SetGenerateResponseError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GenerateResponseFunc = func(ctx context.Context, req GenerateRequest) (string, error) {
		return "", err
	}
}

// Calls returns a copy of the recorded GenerateResponse calls.
func (m *MockLLM) Calls() []GenerateRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]GenerateRequest, len(m.GenerateResponseCalls))
	copy(out, m.GenerateResponseCalls)
	return out
}

// Reset clears all call tracking.
func (m *MockLLM) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InitModelCalls = make([]string, 0)
	m.GenerateResponseCalls = make([]GenerateRequest, 0)
}
