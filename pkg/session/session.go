package session

import (
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mwhitlock/silvertongue/pkg/catalogue"
	"github.com/mwhitlock/silvertongue/pkg/chat"
)

const (
	// StagesPerGame is the number of characters a player must defeat.
	// The stage order is sampled from the full catalogue without
	// replacement, so the catalogue must hold at least this many.
	StagesPerGame = 4

	// XPPerWin is the flat bonus awarded for defeating a character.
	// Hints are paid for separately at dispense time via DeductXP.
	XPPerWin = 250

	// DefaultStageTimeLimit bounds each stage's wall-clock duration.
	DefaultStageTimeLimit = 300 * time.Second
)

// GameSession is the sole mutable aggregate of the game. One instance
// lives per process; it is guarded by a single mutex because hint
// dispensing and turn processing both read and mutate it.
type GameSession struct {
	mu sync.Mutex

	cat            *catalogue.Catalogue
	stageTimeLimit time.Duration
	logger         *slog.Logger
	now            func() time.Time // injectable for timer tests

	id                 uuid.UUID
	characterOrder     []string
	currentStage       int // 0-based; equals len(characterOrder) iff game won
	currentConditionID string
	stagesCompleted    []string
	messagesPerStage   map[int]int
	hintsPerStage      map[int]int
	stageStartTimes    map[int]time.Time
	xpEarned           int
	totalMessages      int
	gameWon            bool
	gameOver           bool
	history            []chat.ChatMessage
}

// New creates a session over the given catalogue and starts the first
// game. Pass 0 to use DefaultStageTimeLimit.
func New(cat *catalogue.Catalogue, stageTimeLimit time.Duration, logger *slog.Logger) *GameSession {
	if stageTimeLimit <= 0 {
		stageTimeLimit = DefaultStageTimeLimit
	}
	s := &GameSession{
		cat:            cat,
		stageTimeLimit: stageTimeLimit,
		logger:         logger,
		now:            time.Now,
	}
	s.Reset()
	return s
}

// Reset discards all mutable state, samples a fresh 4-character order
// from the catalogue without replacement, and rolls the stage-0 win
// condition. Safe to call at any time, including from terminal states.
func (s *GameSession) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := s.cat.Names()
	order := make([]string, 0, StagesPerGame)
	for _, i := range rand.Perm(len(names))[:StagesPerGame] {
		order = append(order, names[i])
	}

	s.id = uuid.New()
	s.characterOrder = order
	s.currentStage = 0
	s.stagesCompleted = nil
	s.messagesPerStage = make(map[int]int)
	s.hintsPerStage = make(map[int]int)
	s.stageStartTimes = map[int]time.Time{0: s.now()}
	s.xpEarned = 0
	s.totalMessages = 0
	s.gameWon = false
	s.gameOver = false
	s.history = make([]chat.ChatMessage, 0)
	s.rollConditionLocked()

	s.logger.Info("Game session reset",
		"session_id", s.id,
		"character_order", s.characterOrder,
		"condition_id", s.currentConditionID,
		"stage_time_limit", s.stageTimeLimit)
}

// rollConditionLocked assigns a win condition for the current stage.
// Level = stage index + 1. Caller must hold the lock.
func (s *GameSession) rollConditionLocked() {
	if s.currentStage >= len(s.characterOrder) {
		return // game won, condition stays stale and unread
	}
	ch, ok := s.cat.ByName(s.characterOrder[s.currentStage])
	if !ok {
		s.currentConditionID = ""
		return
	}
	if wc, ok := ch.RollCondition(s.currentStage + 1); ok {
		s.currentConditionID = wc.ID
	} else {
		s.currentConditionID = ""
	}
}

// ID returns the identity of the current game, re-rolled on each reset.
func (s *GameSession) ID() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// CurrentCharacter returns the character guarding the current stage.
// ok is false once the game is won.
func (s *GameSession) CurrentCharacter() (*catalogue.Character, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentCharacterLocked()
}

func (s *GameSession) currentCharacterLocked() (*catalogue.Character, bool) {
	if s.currentStage >= len(s.characterOrder) {
		return nil, false
	}
	return s.cat.ByName(s.characterOrder[s.currentStage])
}

// CurrentCondition resolves the active win condition for the current
// stage. ok is false once the game is won.
func (s *GameSession) CurrentCondition() (catalogue.WinCondition, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.currentCharacterLocked()
	if !ok {
		return catalogue.WinCondition{}, false
	}
	return ch.Condition(s.currentStage+1, s.currentConditionID)
}

// TimeRemaining reports how long the current stage has left. Zero once
// the game is in a terminal state. Side-effect-free.
func (s *GameSession) TimeRemaining() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timeRemainingLocked()
}

func (s *GameSession) timeRemainingLocked() time.Duration {
	if s.gameWon || s.gameOver {
		return 0
	}
	start, ok := s.stageStartTimes[s.currentStage]
	if !ok {
		return s.stageTimeLimit
	}
	remaining := s.stageTimeLimit - s.now().Sub(start)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// TimeExpired reports whether the current stage ran out of time. It
// does not flip the terminal flag; callers do that via MarkExpired.
func (s *GameSession) TimeExpired() bool {
	return s.TimeRemaining() <= 0
}

// MarkExpired moves the session to its expired terminal state.
func (s *GameSession) MarkExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gameOver = true
	s.logger.Info("Game over, stage timer expired",
		"session_id", s.id,
		"stage", s.currentStage+1)
}

// Terminal reports the two terminal flags.
func (s *GameSession) Terminal() (won, over bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gameWon, s.gameOver
}

// IncrementMessageCount adds a difficulty weight (not literally one
// message) to the current stage counter and the running total.
func (s *GameSession) IncrementMessageCount(weight int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messagesPerStage[s.currentStage] += weight
	s.totalMessages += weight
}

// MessagesInStage returns the difficulty-weighted attempt count for
// the current stage.
func (s *GameSession) MessagesInStage() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.messagesPerStage[s.currentStage]
}

// RecordHintUsed increments the current stage's hint counter and
// returns the new count. The dispenser enforces the per-stage cap;
// the session itself does not reject extra calls.
func (s *GameSession) RecordHintUsed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hintsPerStage[s.currentStage]++
	return s.hintsPerStage[s.currentStage]
}

// HintsUsed returns the hint count for the current stage.
func (s *GameSession) HintsUsed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hintsPerStage[s.currentStage]
}

// AppendHistory appends a role-tagged message to the conversation
// history. History spans the whole session, not just the current stage.
func (s *GameSession) AppendHistory(role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, chat.ChatMessage{Role: role, Content: content})
}

// History returns a copy of the full conversation history.
func (s *GameSession) History() []chat.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]chat.ChatMessage, len(s.history))
	copy(out, s.history)
	return out
}

// HistoryLen returns the number of recorded messages.
func (s *GameSession) HistoryLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history)
}

// AdvanceToNextCharacter records the defeat of the current character
// and moves to the next stage, starting its timer and rolling a fresh
// win condition. Past the final stage it flips the won flag instead.
func (s *GameSession) AdvanceToNextCharacter() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stagesCompleted = append(s.stagesCompleted, s.characterOrder[s.currentStage])
	s.currentStage++

	if s.currentStage >= len(s.characterOrder) {
		s.gameWon = true
		s.logger.Info("Game won, all characters defeated",
			"session_id", s.id,
			"total_xp", s.xpEarned)
		return
	}

	s.stageStartTimes[s.currentStage] = s.now()
	s.rollConditionLocked()
	s.logger.Info("Advanced to next stage",
		"session_id", s.id,
		"stage", s.currentStage+1,
		"character", s.characterOrder[s.currentStage],
		"condition_id", s.currentConditionID)
}

// CalculateXPForWin awards the flat per-character bonus to the running
// total and returns the amount awarded.
func (s *GameSession) CalculateXPForWin() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.xpEarned += XPPerWin
	return XPPerWin
}

// DeductXP subtracts the given amount from the running total. The
// total may go negative; a non-positive amount deducts nothing.
func (s *GameSession) DeductXP(amount int) {
	if amount <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.xpEarned -= amount
}

// TotalXP returns the running XP total.
func (s *GameSession) TotalXP() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.xpEarned
}

// Progress assembles the status snapshot served to clients.
func (s *GameSession) Progress() chat.ProgressResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	var name, glyph string
	if ch, ok := s.currentCharacterLocked(); ok {
		name = ch.Name
		glyph = ch.Glyph
	}

	completed := make([]string, len(s.stagesCompleted))
	copy(completed, s.stagesCompleted)
	order := make([]string, len(s.characterOrder))
	copy(order, s.characterOrder)

	return chat.ProgressResponse{
		SessionID:             s.id.String(),
		CurrentStage:          s.currentStage + 1,
		TotalStages:           len(s.characterOrder),
		CurrentCharacter:      name,
		CharacterGlyph:        glyph,
		StagesCompleted:       completed,
		TotalXP:               s.xpEarned,
		TotalMessages:         s.totalMessages,
		GameWon:               s.gameWon,
		GameOver:              s.gameOver,
		CharacterOrder:        order,
		HintsUsedCurrentStage: s.hintsPerStage[s.currentStage],
		TimeRemaining:         s.timeRemainingLocked().Seconds(),
	}
}
