package session

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwhitlock/silvertongue/pkg/catalogue"
	"github.com/mwhitlock/silvertongue/pkg/chat"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError, // Reduce noise in tests
	}))
}

func newTestSession(t *testing.T) *GameSession {
	t.Helper()
	cat, err := catalogue.Load()
	require.NoError(t, err)
	return New(cat, 0, testLogger())
}

func TestReset_CharacterOrder(t *testing.T) {
	s := newTestSession(t)
	cat, err := catalogue.Load()
	require.NoError(t, err)

	for i := 0; i < 25; i++ {
		s.Reset()
		p := s.Progress()

		require.Len(t, p.CharacterOrder, StagesPerGame)
		seen := make(map[string]bool)
		for _, name := range p.CharacterOrder {
			assert.False(t, seen[name], "duplicate character %q in order", name)
			seen[name] = true
			_, ok := cat.ByName(name)
			assert.True(t, ok, "character %q not in catalogue", name)
		}

		assert.Equal(t, 1, p.CurrentStage)
		assert.Zero(t, p.TotalXP)
		assert.Zero(t, p.TotalMessages)
		assert.False(t, p.GameWon)
		assert.False(t, p.GameOver)
		assert.Empty(t, p.StagesCompleted)
	}
}

func TestReset_RollsLevelOneCondition(t *testing.T) {
	s := newTestSession(t)

	for i := 0; i < 25; i++ {
		s.Reset()
		ch, ok := s.CurrentCharacter()
		require.True(t, ok)
		wc, ok := s.CurrentCondition()
		require.True(t, ok)

		found := false
		for _, alt := range ch.WinConditions[1] {
			if alt.ID == wc.ID {
				found = true
			}
		}
		assert.True(t, found, "condition %q is not a level-1 alternative of %q", wc.ID, ch.Name)
	}
}

func TestConditionMatchesStageLevel(t *testing.T) {
	s := newTestSession(t)

	for stage := 0; stage < StagesPerGame; stage++ {
		ch, ok := s.CurrentCharacter()
		require.True(t, ok)
		wc, ok := s.CurrentCondition()
		require.True(t, ok, "stage %d has no resolvable condition", stage)

		level := stage + 1
		ids := make([]string, 0, 2)
		for _, alt := range ch.WinConditions[level] {
			ids = append(ids, alt.ID)
		}
		assert.Contains(t, ids, wc.ID, "stage %d rolled a condition outside level %d", stage, level)

		s.AdvanceToNextCharacter()
	}
}

func TestTimeRemaining(t *testing.T) {
	s := newTestSession(t)

	clock := time.Now()
	s.now = func() time.Time { return clock }
	s.Reset()

	assert.Equal(t, DefaultStageTimeLimit, s.TimeRemaining())
	assert.False(t, s.TimeExpired())

	// Monotonically non-increasing within a stage.
	clock = clock.Add(100 * time.Second)
	assert.Equal(t, 200*time.Second, s.TimeRemaining())

	clock = clock.Add(100 * time.Second)
	assert.Equal(t, 100*time.Second, s.TimeRemaining())

	// Clamped at zero past the limit.
	clock = clock.Add(200 * time.Second)
	assert.Equal(t, time.Duration(0), s.TimeRemaining())
	assert.True(t, s.TimeExpired())

	// Expiry is lazy: the flag only flips when a caller marks it.
	_, over := s.Terminal()
	assert.False(t, over)
	s.MarkExpired()
	_, over = s.Terminal()
	assert.True(t, over)
	assert.Equal(t, time.Duration(0), s.TimeRemaining())
}

func TestAdvanceResetsStageTimer(t *testing.T) {
	s := newTestSession(t)

	clock := time.Now()
	s.now = func() time.Time { return clock }
	s.Reset()

	clock = clock.Add(250 * time.Second)
	assert.Equal(t, 50*time.Second, s.TimeRemaining())

	s.AdvanceToNextCharacter()
	assert.Equal(t, DefaultStageTimeLimit, s.TimeRemaining())
}

func TestAdvanceToNextCharacter(t *testing.T) {
	s := newTestSession(t)
	order := s.Progress().CharacterOrder

	for stage := 0; stage < StagesPerGame-1; stage++ {
		s.AdvanceToNextCharacter()
		p := s.Progress()
		assert.False(t, p.GameWon)
		assert.Equal(t, stage+2, p.CurrentStage)
		assert.Equal(t, order[:stage+1], p.StagesCompleted)
	}

	// Final advance wins the game instead of setting up a new stage.
	s.AdvanceToNextCharacter()
	p := s.Progress()
	assert.True(t, p.GameWon)
	assert.Equal(t, StagesPerGame+1, p.CurrentStage)
	assert.Equal(t, order, p.StagesCompleted)

	_, ok := s.CurrentCharacter()
	assert.False(t, ok)
	_, ok = s.CurrentCondition()
	assert.False(t, ok)
	assert.Equal(t, time.Duration(0), s.TimeRemaining())
}

func TestXP(t *testing.T) {
	s := newTestSession(t)

	awarded := s.CalculateXPForWin()
	assert.Equal(t, XPPerWin, awarded)
	assert.Equal(t, XPPerWin, s.TotalXP())

	s.AdvanceToNextCharacter()
	awarded = s.CalculateXPForWin()
	assert.Equal(t, XPPerWin, awarded, "award is flat, independent of stage level")
	assert.Equal(t, 2*XPPerWin, s.TotalXP())
}

func TestDeductXP(t *testing.T) {
	s := newTestSession(t)

	// Hints are paid up front; the total may go negative.
	s.DeductXP(100)
	assert.Equal(t, -100, s.TotalXP())

	// Non-positive amounts deduct nothing.
	s.DeductXP(0)
	s.DeductXP(-50)
	assert.Equal(t, -100, s.TotalXP())
}

func TestMessageCounts(t *testing.T) {
	s := newTestSession(t)

	s.IncrementMessageCount(1)
	s.IncrementMessageCount(3)
	assert.Equal(t, 4, s.MessagesInStage())
	assert.Equal(t, 4, s.Progress().TotalMessages)

	// Per-stage counter starts fresh after an advance, total carries on.
	s.AdvanceToNextCharacter()
	assert.Zero(t, s.MessagesInStage())
	s.IncrementMessageCount(2)
	assert.Equal(t, 2, s.MessagesInStage())
	assert.Equal(t, 6, s.Progress().TotalMessages)
}

func TestHintCounter(t *testing.T) {
	s := newTestSession(t)

	assert.Zero(t, s.HintsUsed())
	assert.Equal(t, 1, s.RecordHintUsed())
	assert.Equal(t, 2, s.RecordHintUsed())
	assert.Equal(t, 2, s.HintsUsed())
	assert.Equal(t, 2, s.Progress().HintsUsedCurrentStage)

	s.AdvanceToNextCharacter()
	assert.Zero(t, s.HintsUsed(), "hint counter is per stage")
}

func TestHistory(t *testing.T) {
	s := newTestSession(t)

	s.AppendHistory(chat.ChatRoleUser, "ahoy there")
	s.AppendHistory(chat.ChatRoleAgent, "Arr, what do ye want?")

	h := s.History()
	require.Len(t, h, 2)
	assert.Equal(t, chat.ChatRoleUser, h[0].Role)
	assert.Equal(t, "ahoy there", h[0].Content)

	// History spans stages.
	s.AdvanceToNextCharacter()
	s.AppendHistory(chat.ChatRoleUser, "hello again")
	assert.Equal(t, 3, s.HistoryLen())

	// The returned slice is a copy.
	h[0].Content = "mutated"
	assert.Equal(t, "ahoy there", s.History()[0].Content)
}

func TestResetReRollsIdentity(t *testing.T) {
	s := newTestSession(t)
	first := s.ID()
	s.Reset()
	assert.NotEqual(t, first, s.ID())
}
