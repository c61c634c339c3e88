package catalogue

// FallbackHint is returned when a (character, condition) pair has no
// authored hints. Some high-level conditions ship without them.
const FallbackHint = "Think about what this character values most, and speak to that."

// Hint returns the hint for the given character, condition id and tier
// (1..3, increasingly explicit). Falls back to a generic string when
// the combination is missing.
func (c *Catalogue) Hint(character, conditionID string, tier int) string {
	if tier < 1 || tier > HintTiers {
		return FallbackHint
	}
	tiers, ok := c.hints[character][conditionID]
	if !ok || len(tiers) != HintTiers {
		return FallbackHint
	}
	return tiers[tier-1]
}
