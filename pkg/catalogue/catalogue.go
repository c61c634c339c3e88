package catalogue

import (
	_ "embed"
	"fmt"
	"math/rand/v2"

	"gopkg.in/yaml.v3"
)

//go:embed data/characters.yaml
var charactersYAML []byte

//go:embed data/hints.yaml
var hintsYAML []byte

// WinCondition is one hidden requirement a player message must satisfy
// to clear a stage. The rubric is free text consumed by the Judge.
type WinCondition struct {
	ID        string `yaml:"id"`
	Condition string `yaml:"condition"`
	Rubric    string `yaml:"rubric"`
}

// Character is one guard persona. Immutable after load.
type Character struct {
	Name        string `yaml:"name"`
	Glyph       string `yaml:"glyph"`
	Color       string `yaml:"color"`
	Description string `yaml:"description"`
	Persona     string `yaml:"persona"` // system prompt for the Guard

	// WinConditions maps difficulty level (1..5) to the alternative
	// conditions for that level. Most levels define two; not every
	// character defines level 5.
	WinConditions map[int][]WinCondition `yaml:"win_conditions"`
}

// Catalogue holds the full static character and hint content.
type Catalogue struct {
	Characters []Character
	byName     map[string]*Character
	hints      map[string]map[string][]string // character -> condition id -> 3 hint tiers
}

// HintTiers is the number of hints available per win condition.
const HintTiers = 3

type charactersFile struct {
	Characters []Character `yaml:"characters"`
}

type hintsFile struct {
	Hints map[string]map[string][]string `yaml:"hints"`
}

// Load parses the embedded character and hint data and validates it.
func Load() (*Catalogue, error) {
	var cf charactersFile
	if err := yaml.Unmarshal(charactersYAML, &cf); err != nil {
		return nil, fmt.Errorf("failed to parse character data: %w", err)
	}
	var hf hintsFile
	if err := yaml.Unmarshal(hintsYAML, &hf); err != nil {
		return nil, fmt.Errorf("failed to parse hint data: %w", err)
	}

	c := &Catalogue{
		Characters: cf.Characters,
		byName:     make(map[string]*Character, len(cf.Characters)),
		hints:      hf.Hints,
	}
	for i := range c.Characters {
		c.byName[c.Characters[i].Name] = &c.Characters[i]
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Catalogue) validate() error {
	if len(c.Characters) == 0 {
		return fmt.Errorf("character catalogue is empty")
	}
	for _, ch := range c.Characters {
		if ch.Name == "" {
			return fmt.Errorf("character with empty name")
		}
		if len(ch.WinConditions) == 0 {
			return fmt.Errorf("character %q has no win conditions", ch.Name)
		}
		for level, conds := range ch.WinConditions {
			if len(conds) == 0 {
				return fmt.Errorf("character %q has no conditions at level %d", ch.Name, level)
			}
			for _, wc := range conds {
				if wc.ID == "" {
					return fmt.Errorf("character %q has a condition with empty id at level %d", ch.Name, level)
				}
				// Conditions without authored hints serve the
				// generic fallback; a partial tier set is a data bug.
				tiers, ok := c.hints[ch.Name][wc.ID]
				if ok && len(tiers) != HintTiers {
					return fmt.Errorf("condition %q of %q has %d hints, want %d", wc.ID, ch.Name, len(tiers), HintTiers)
				}
			}
		}
	}
	return nil
}

// ByName returns the character with the given name.
func (c *Catalogue) ByName(name string) (*Character, bool) {
	ch, ok := c.byName[name]
	return ch, ok
}

// Names returns the names of all characters in catalogue order.
func (c *Catalogue) Names() []string {
	names := make([]string, len(c.Characters))
	for i, ch := range c.Characters {
		names[i] = ch.Name
	}
	return names
}

// RollCondition picks uniformly at random among the character's
// win conditions for the given level.
func (ch *Character) RollCondition(level int) (WinCondition, bool) {
	conds, ok := ch.WinConditions[level]
	if !ok || len(conds) == 0 {
		return WinCondition{}, false
	}
	return conds[rand.IntN(len(conds))], true
}

// Condition looks up a win condition by level and id.
func (ch *Character) Condition(level int, id string) (WinCondition, bool) {
	for _, wc := range ch.WinConditions[level] {
		if wc.ID == id {
			return wc, true
		}
	}
	return WinCondition{}, false
}
