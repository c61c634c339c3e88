package services

import (
	"context"

	"github.com/mwhitlock/silvertongue/pkg/chat"
)

// GenerateRequest is a single chat completion call. Temperature and
// MaxTokens are per-call because the Judge wants near-deterministic
// short output while the Guard wants creative longer dialogue.
type GenerateRequest struct {
	System      string
	Messages    []chat.ChatMessage
	Temperature float64
	MaxTokens   int
}

// LLMService defines the interface for interacting with an LLM API.
type LLMService interface {
	// InitModel initializes the LLM model on startup
	InitModel(ctx context.Context, modelName string) error

	// GenerateResponse generates a chat completion
	GenerateResponse(ctx context.Context, req GenerateRequest) (string, error)
}
