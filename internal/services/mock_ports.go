package services

import (
	"context"
	"sync"

	"github.com/mwhitlock/silvertongue/pkg/catalogue"
	"github.com/mwhitlock/silvertongue/pkg/chat"
)

// MockArbiter is a scripted implementation of all four capability
// ports for testing the orchestrator without an LLM.
type MockArbiter struct {
	EvaluateFunc        func(ctx context.Context, character *catalogue.Character, history []chat.ChatMessage, message string, condition catalogue.WinCondition) (Verdict, error)
	RespondFunc         func(ctx context.Context, character *catalogue.Character, history []chat.ChatMessage, message string) (string, error)
	IsGameRelatedFunc   func(ctx context.Context, message string) (bool, error)
	EstimateTacticsFunc func(ctx context.Context, message string) (int, error)

	// Track calls for testing
	EvaluateCalls        int
	RespondCalls         int
	IsGameRelatedCalls   int
	EstimateTacticsCalls int

	mu sync.Mutex // protects all fields above
}

var (
	_ Judge           = (*MockArbiter)(nil)
	_ Guard           = (*MockArbiter)(nil)
	_ Screener        = (*MockArbiter)(nil)
	_ EffortEstimator = (*MockArbiter)(nil)
)

// NewMockArbiter creates a mock with permissive defaults: no win,
// a canned guard line, on-topic, one tactic.
func NewMockArbiter() *MockArbiter {
	return &MockArbiter{}
}

func (m *MockArbiter) Evaluate(ctx context.Context, character *catalogue.Character, history []chat.ChatMessage, message string, condition catalogue.WinCondition) (Verdict, error) {
	m.mu.Lock()
	m.EvaluateCalls++
	fn := m.EvaluateFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, character, history, message, condition)
	}
	return Verdict{Win: false}, nil
}

func (m *MockArbiter) Respond(ctx context.Context, character *catalogue.Character, history []chat.ChatMessage, message string) (string, error) {
	m.mu.Lock()
	m.RespondCalls++
	fn := m.RespondFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, character, history, message)
	}
	return "Nice try, but no.", nil
}

func (m *MockArbiter) IsGameRelated(ctx context.Context, message string) (bool, error) {
	m.mu.Lock()
	m.IsGameRelatedCalls++
	fn := m.IsGameRelatedFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, message)
	}
	return true, nil
}

func (m *MockArbiter) EstimateTactics(ctx context.Context, message string) (int, error) {
	m.mu.Lock()
	m.EstimateTacticsCalls++
	fn := m.EstimateTacticsFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, message)
	}
	return 1, nil
}
