package game

import (
	"github.com/mwhitlock/silvertongue/pkg/catalogue"
	"github.com/mwhitlock/silvertongue/pkg/chat"
)

// HintCosts is the XP price per hint tier. Hints are charged up front
// via DeductXP, so the running total may go negative.
var HintCosts = [catalogue.HintTiers]int{25, 50, 100}

// RequestHint dispenses the next hint tier for the current stage. The
// tier is hints-used-so-far + 1; the fourth request within one stage
// is refused, as is any request once the game has ended.
func (o *Orchestrator) RequestHint() (*chat.HintResponse, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	won, over := o.session.Terminal()
	if won {
		return nil, clientErr(CodeGameWon, "Game already won! Reset to play again.")
	}
	if over {
		return nil, clientErr(CodeGameOver, "Game over! Time expired. Reset to play again.")
	}

	used := o.session.HintsUsed()
	if used >= catalogue.HintTiers {
		return nil, clientErr(CodeHintLimit, "Maximum 3 hints per character. Try something new!")
	}

	character, ok := o.session.CurrentCharacter()
	if !ok {
		return nil, clientErr(CodeGameWon, "Game already won! Reset to play again.")
	}

	tier := used + 1
	var conditionID string
	if wc, ok := o.session.CurrentCondition(); ok {
		conditionID = wc.ID
	}
	hint := o.cat.Hint(character.Name, conditionID, tier)

	cost := HintCosts[tier-1]
	o.session.DeductXP(cost)
	o.session.RecordHintUsed()

	o.logger.Info("Hint dispensed",
		"character", character.Name,
		"condition_id", conditionID,
		"hint_level", tier,
		"xp_cost", cost)

	return &chat.HintResponse{
		Hint:      hint,
		HintLevel: tier,
		Character: character.Name,
		XPCost:    cost,
		TotalXP:   o.session.TotalXP(),
	}, nil
}
