package services

import (
	"context"

	"github.com/mwhitlock/silvertongue/pkg/catalogue"
	"github.com/mwhitlock/silvertongue/pkg/chat"
)

// Verdict is the Judge's decision for a single turn.
type Verdict struct {
	Win    bool   `json:"win"`
	Reason string `json:"reason,omitempty"`
}

// Judge decides whether the player's latest message satisfies the
// active win condition. Garbled model output must be treated as a
// no-win verdict, not an error; only transport failures return err.
type Judge interface {
	Evaluate(ctx context.Context, character *catalogue.Character, history []chat.ChatMessage, message string, condition catalogue.WinCondition) (Verdict, error)
}

// Guard produces the in-character refusal or engagement dialogue when
// the player has not yet won.
type Guard interface {
	Respond(ctx context.Context, character *catalogue.Character, history []chat.ChatMessage, message string) (string, error)
}

// Screener pre-filters messages so the Guard is only invoked for turns
// that actually engage with the game. Failure defaults to permissive.
type Screener interface {
	IsGameRelated(ctx context.Context, message string) (bool, error)
}

// EffortEstimator counts the distinct persuasion tactics in a message,
// in [0,3]. The count is recorded as the turn's attempt weight.
type EffortEstimator interface {
	EstimateTactics(ctx context.Context, message string) (int, error)
}
