package game

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/mwhitlock/silvertongue/internal/services"
	"github.com/mwhitlock/silvertongue/pkg/catalogue"
	"github.com/mwhitlock/silvertongue/pkg/chat"
	"github.com/mwhitlock/silvertongue/pkg/session"
	"github.com/mwhitlock/silvertongue/pkg/textfilter"
)

const (
	// offTopicDeflection is the fixed in-character line used when the
	// screener flags a message, sparing a full Guard call.
	offTopicDeflection = "I'm here to discuss matters relevant to our interaction. Please focus on the conversation at hand."

	// guardFallback is the refusal used when the Guard call fails.
	guardFallback = "I appreciate the effort, but I'm afraid I can't help with that."

	timeUpLine = "Time's up! You've run out of time for this stage. Game over!"

	defaultWinReason = "Social engineering tactic detected"
)

// Orchestrator processes player turns against the live session. A
// single mutex serializes turns, hint dispenses and resets, so no two
// operations ever interleave their session mutations.
type Orchestrator struct {
	mu sync.Mutex

	session  *session.GameSession
	cat      *catalogue.Catalogue
	judge    services.Judge
	guard    services.Guard
	screener services.Screener
	effort   services.EffortEstimator
	filter   *textfilter.Filter // nil disables dialogue filtering
	logger   *slog.Logger
}

// NewOrchestrator wires the session to the capability ports.
func NewOrchestrator(
	sess *session.GameSession,
	cat *catalogue.Catalogue,
	judge services.Judge,
	guard services.Guard,
	screener services.Screener,
	effort services.EffortEstimator,
	filter *textfilter.Filter,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		session:  sess,
		cat:      cat,
		judge:    judge,
		guard:    guard,
		screener: screener,
		effort:   effort,
		filter:   filter,
		logger:   logger,
	}
}

// Progress returns the current session snapshot.
func (o *Orchestrator) Progress() chat.ProgressResponse {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.session.Progress()
}

// Reset starts a fresh game.
func (o *Orchestrator) Reset() chat.ProgressResponse {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.session.Reset()
	return o.session.Progress()
}

// ProcessTurn evaluates exactly one player message and returns the new
// externally visible state. Capability-port failures degrade to
// conservative defaults; only precondition violations return an error,
// always before any state mutation.
func (o *Orchestrator) ProcessTurn(ctx context.Context, message string) (*chat.TurnResponse, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if strings.TrimSpace(message) == "" {
		return nil, clientErr(CodeEmptyMessage, "Message cannot be empty.")
	}

	won, over := o.session.Terminal()
	if won {
		return nil, clientErr(CodeGameWon, "Game already won! Reset to play again.")
	}
	if over {
		return nil, clientErr(CodeGameOver, "Game over! Time expired. Reset to play again.")
	}

	// Expiry is discovered lazily, on the turn after the clock ran
	// out. The expired turn is answered without consulting any port.
	if o.session.TimeExpired() {
		o.session.MarkExpired()
		resp := o.assemble(timeUpLine)
		return resp, nil
	}

	character, ok := o.session.CurrentCharacter()
	if !ok {
		// Unreachable while the terminal checks above hold.
		return nil, clientErr(CodeGameWon, "Game already won! Reset to play again.")
	}
	condition, _ := o.session.CurrentCondition()
	history := o.session.History()

	verdict, err := o.judge.Evaluate(ctx, character, history, message, condition)
	if err != nil {
		o.logger.Error("Judge call failed, treating as no win", "error", err, "character", character.Name)
		verdict = services.Verdict{Win: false}
	}

	weight, err := o.effort.EstimateTactics(ctx, message)
	if err != nil {
		o.logger.Warn("Effort estimation failed, defaulting to 1", "error", err)
		weight = 1
	}

	if verdict.Win {
		return o.processWin(character, message, weight, verdict), nil
	}
	return o.processRefusal(ctx, character, history, message, weight), nil
}

func (o *Orchestrator) processWin(character *catalogue.Character, message string, weight int, verdict services.Verdict) *chat.TurnResponse {
	xp := o.session.CalculateXPForWin()

	o.session.IncrementMessageCount(weight)
	o.session.AppendHistory(chat.ChatRoleUser, message)
	o.session.AppendHistory(chat.ChatRoleAgent, fmt.Sprintf("You've defeated %s!", character.Name))

	o.session.AdvanceToNextCharacter()

	p := o.session.Progress()
	var text string
	if p.GameWon {
		text = fmt.Sprintf("LEGENDARY! You've conquered all %d characters and won the game! Total XP: %d",
			p.TotalStages, p.TotalXP)
	} else {
		text = fmt.Sprintf("Excellent work! You've defeated %s. Now face %s (Stage %d/%d)!",
			character.Name, p.CurrentCharacter, p.CurrentStage, p.TotalStages)
	}

	o.logger.Info("Stage cleared",
		"defeated", character.Name,
		"xp_awarded", xp,
		"game_won", p.GameWon)

	resp := o.assemble(text)
	resp.Won = true
	resp.XPEarned = xp
	resp.Reason = verdict.Reason
	if resp.Reason == "" {
		resp.Reason = defaultWinReason
	}
	return resp
}

func (o *Orchestrator) processRefusal(ctx context.Context, character *catalogue.Character, history []chat.ChatMessage, message string, weight int) *chat.TurnResponse {
	var reply string

	related, err := o.screener.IsGameRelated(ctx, message)
	if err != nil {
		o.logger.Warn("Screener call failed, allowing message", "error", err)
		related = true
	}

	if !related {
		// Skip the Guard entirely for off-topic turns.
		o.logger.Debug("Message rejected as off-topic", "character", character.Name)
		reply = offTopicDeflection
	} else {
		reply, err = o.guard.Respond(ctx, character, history, message)
		if err != nil {
			o.logger.Error("Guard call failed, using fallback refusal", "error", err, "character", character.Name)
			reply = guardFallback
		} else if o.filter != nil {
			reply = o.filter.FilterText(reply)
		}
	}

	o.session.IncrementMessageCount(weight)
	o.session.AppendHistory(chat.ChatRoleUser, message)
	o.session.AppendHistory(chat.ChatRoleAgent, reply)

	return o.assemble(reply)
}

// assemble builds a response snapshot from the session's current state.
func (o *Orchestrator) assemble(text string) *chat.TurnResponse {
	p := o.session.Progress()
	return &chat.TurnResponse{
		Response:         text,
		CurrentStage:     p.CurrentStage,
		TotalStages:      p.TotalStages,
		CurrentCharacter: p.CurrentCharacter,
		CharacterGlyph:   p.CharacterGlyph,
		MessagesInStage:  o.session.MessagesInStage(),
		TotalMessages:    p.TotalMessages,
		TotalXP:          p.TotalXP,
		GameWon:          p.GameWon,
		GameOver:         p.GameOver,
		TimeRemaining:    p.TimeRemaining,
	}
}
