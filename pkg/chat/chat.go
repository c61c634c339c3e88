package chat

import (
	"fmt"
	"strings"
)

const (
	ChatRoleUser  = "user"      // the player
	ChatRoleAgent = "assistant" // guard characters and game announcements
)

// ChatMessage represents a single chat message in the conversation.
// The shape matches what the LLM chat APIs expect, so session history
// can be forwarded to the Judge and Guard without conversion.
type ChatMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// ChatRequest represents one player turn submitted to the api.
type ChatRequest struct {
	Message string `json:"message"`
}

func (cr *ChatRequest) Validate() error {
	if strings.TrimSpace(cr.Message) == "" {
		return fmt.Errorf("message cannot be empty")
	}
	return nil
}

// TurnResponse is the externally visible outcome of one player turn.
type TurnResponse struct {
	Response         string  `json:"response"`
	Won              bool    `json:"won"`
	XPEarned         int     `json:"xp_earned"`
	Reason           string  `json:"reason,omitempty"`
	CurrentStage     int     `json:"current_stage"` // 1-based for display
	TotalStages      int     `json:"total_stages"`
	CurrentCharacter string  `json:"current_character"`
	CharacterGlyph   string  `json:"character_glyph"`
	MessagesInStage  int     `json:"messages_in_stage"`
	TotalMessages    int     `json:"total_messages"`
	TotalXP          int     `json:"total_xp"`
	GameWon          bool    `json:"game_won"`
	GameOver         bool    `json:"game_over"`
	TimeRemaining    float64 `json:"time_remaining"` // seconds left in the current stage
}

// HintResponse is the payload for a dispensed hint.
type HintResponse struct {
	Hint      string `json:"hint"`
	HintLevel int    `json:"hint_level"` // 1..3
	Character string `json:"character"`
	XPCost    int    `json:"xp_cost"`
	TotalXP   int    `json:"total_xp"`
}

// ProgressResponse is the session status snapshot served to clients.
type ProgressResponse struct {
	SessionID             string   `json:"session_id"`
	CurrentStage          int      `json:"current_stage"` // 1-based for display
	TotalStages           int      `json:"total_stages"`
	CurrentCharacter      string   `json:"current_character"`
	CharacterGlyph        string   `json:"character_glyph"`
	StagesCompleted       []string `json:"stages_completed"`
	TotalXP               int      `json:"total_xp"`
	TotalMessages         int      `json:"total_messages"`
	GameWon               bool     `json:"game_won"`
	GameOver              bool     `json:"game_over"`
	CharacterOrder        []string `json:"character_order"`
	HintsUsedCurrentStage int      `json:"hints_used_current_stage"`
	TimeRemaining         float64  `json:"time_remaining"`
}
