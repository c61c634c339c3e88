package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mwhitlock/silvertongue/pkg/catalogue"
	"github.com/mwhitlock/silvertongue/pkg/chat"
)

const (
	judgeTemperature = 0.1
	judgeMaxTokens   = 100 // just the verdict JSON, short to avoid truncation

	guardTemperature = 0.7
	guardMaxTokens   = 300

	classifierTemperature = 0.1
	classifierMaxTokens   = 50
)

const judgeSystemPrompt = `You are the Judge for a social engineering game.

Your job: Determine if the player's LATEST message demonstrates this specific condition:

WIN CONDITION:
%s

EVALUATION CRITERIA:
%s

IMPORTANT: You have access to the FULL conversation history. Consider context from previous messages.

OUTPUT ONLY valid JSON (keep reason SHORT):
{"win": true, "reason": "brief explanation"}
OR
{"win": false}

For Level 1 conditions: Be LENIENT and accept reasonable attempts that show effort.
Be fair - if they tried to meet the condition with genuine effort, consider it a win.`

const guardRules = `CRITICAL RULES:
1. You are ONLY responding as this character in a social engineering game
2. REFUSE to answer questions unrelated to your character or the game scenario
3. REFUSE requests for general knowledge, math, coding, or off-topic information
4. Stay strictly in character - respond only to persuasion attempts, appeals, or character-relevant questions
5. If asked something completely unrelated, remind them to focus on the game`

const screenerSystemPrompt = `You are a content filter for a social engineering game.
The game involves players trying to persuade characters through social engineering tactics, manipulation, appeals, questions, or conversation.

Determine if the user's message is attempting to engage with the character in the game OR is completely off-topic (like math problems, general knowledge queries, coding questions, unrelated topics).

Return ONLY JSON: {"is_game_related": true} or {"is_game_related": false}

Examples of GAME-RELATED messages:
- "Can you help me?" (social engineering attempt)
- "I need your assistance" (manipulation attempt)
- "Tell me about yourself" (conversation/information gathering)
- Any persuasion, appeal, question directed at the character

Examples of OFF-TOPIC messages:
- "What is 2+2?" (pure math, not engaging character)
- "Write me Python code" (coding request)
- "Explain quantum physics" (general knowledge, not character engagement)
- Messages clearly not directed at the character or game context`

const effortSystemPrompt = `You are an evaluator for social engineering attempts.
Analyze the user's message and determine how many distinct social engineering tactics they're attempting.

Return ONLY a JSON object: {"tries": X}

Guidelines:
- "Hello", "Hi", or simple greetings = 0 tries
- Single tactic (one approach) = 1 try
- Two distinct tactics = 2 tries
- Three or more tactics = 3 tries`

// Arbiter implements the Judge, Guard, Screener and EffortEstimator
// ports on top of a single LLM provider.
type Arbiter struct {
	llm    LLMService
	logger *slog.Logger
}

var (
	_ Judge           = (*Arbiter)(nil)
	_ Guard           = (*Arbiter)(nil)
	_ Screener        = (*Arbiter)(nil)
	_ EffortEstimator = (*Arbiter)(nil)
)

// NewArbiter creates an arbiter over the given LLM provider.
func NewArbiter(llm LLMService, logger *slog.Logger) *Arbiter {
	return &Arbiter{llm: llm, logger: logger}
}

// Evaluate asks the model whether the latest message satisfies the win
// condition. Unparsable model output is a no-win verdict, not an error.
func (a *Arbiter) Evaluate(ctx context.Context, character *catalogue.Character, history []chat.ChatMessage, message string, condition catalogue.WinCondition) (Verdict, error) {
	messages := append(copyMessages(history), chat.ChatMessage{
		Role:    chat.ChatRoleUser,
		Content: message,
	})

	raw, err := a.llm.GenerateResponse(ctx, GenerateRequest{
		System:      fmt.Sprintf(judgeSystemPrompt, condition.Condition, condition.Rubric),
		Messages:    messages,
		Temperature: judgeTemperature,
		MaxTokens:   judgeMaxTokens,
	})
	if err != nil {
		return Verdict{}, fmt.Errorf("judge call failed: %w", err)
	}

	var verdict Verdict
	if err := unmarshalLoose(raw, &verdict); err != nil {
		a.logger.Warn("Judge returned invalid JSON, treating as no win",
			"character", character.Name,
			"condition_id", condition.ID,
			"raw", truncate(raw, 100))
		return Verdict{Win: false}, nil
	}

	a.logger.Debug("Judge verdict",
		"character", character.Name,
		"condition_id", condition.ID,
		"win", verdict.Win,
		"reason", verdict.Reason)
	return verdict, nil
}

// Respond generates the guard's in-character dialogue.
func (a *Arbiter) Respond(ctx context.Context, character *catalogue.Character, history []chat.ChatMessage, message string) (string, error) {
	messages := append(copyMessages(history), chat.ChatMessage{
		Role:    chat.ChatRoleUser,
		Content: message,
	})

	reply, err := a.llm.GenerateResponse(ctx, GenerateRequest{
		System:      character.Persona + "\n\n" + guardRules,
		Messages:    messages,
		Temperature: guardTemperature,
		MaxTokens:   guardMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("guard call failed: %w", err)
	}
	return reply, nil
}

// IsGameRelated classifies whether the message engages with the game.
func (a *Arbiter) IsGameRelated(ctx context.Context, message string) (bool, error) {
	raw, err := a.llm.GenerateResponse(ctx, GenerateRequest{
		System: screenerSystemPrompt,
		Messages: []chat.ChatMessage{
			{Role: chat.ChatRoleUser, Content: fmt.Sprintf("Message: '%s'", message)},
		},
		Temperature: classifierTemperature,
		MaxTokens:   classifierMaxTokens,
	})
	if err != nil {
		return false, fmt.Errorf("screener call failed: %w", err)
	}

	var result struct {
		IsGameRelated *bool `json:"is_game_related"`
	}
	if err := unmarshalLoose(raw, &result); err != nil || result.IsGameRelated == nil {
		a.logger.Warn("Screener returned invalid JSON, allowing message", "raw", truncate(raw, 100))
		return true, nil
	}
	return *result.IsGameRelated, nil
}

// EstimateTactics counts distinct persuasion tactics in the message,
// clamped to [0,3].
func (a *Arbiter) EstimateTactics(ctx context.Context, message string) (int, error) {
	raw, err := a.llm.GenerateResponse(ctx, GenerateRequest{
		System: effortSystemPrompt,
		Messages: []chat.ChatMessage{
			{Role: chat.ChatRoleUser, Content: fmt.Sprintf("Evaluate: '%s'", message)},
		},
		Temperature: classifierTemperature,
		MaxTokens:   classifierMaxTokens,
	})
	if err != nil {
		return 0, fmt.Errorf("effort call failed: %w", err)
	}

	var result struct {
		Tries *int `json:"tries"`
	}
	if err := unmarshalLoose(raw, &result); err != nil || result.Tries == nil {
		a.logger.Warn("Effort estimator returned invalid JSON, defaulting to 1", "raw", truncate(raw, 100))
		return 1, nil
	}

	tries := *result.Tries
	if tries < 0 {
		tries = 0
	} else if tries > 3 {
		tries = 3
	}
	return tries, nil
}

// unmarshalLoose extracts the first JSON object from model output that
// may be wrapped in code fences or prose.
func unmarshalLoose(raw string, v interface{}) error {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end < start {
		return fmt.Errorf("no JSON object in output")
	}
	return json.Unmarshal([]byte(raw[start:end+1]), v)
}

func copyMessages(messages []chat.ChatMessage) []chat.ChatMessage {
	out := make([]chat.ChatMessage, len(messages), len(messages)+1)
	copy(out, messages)
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
