package roster

import "github.com/xtding233/pocket-encounters/internal/dex"

// Creature is one monster with its mutable battle state.
type Creature struct {
	Species   int        `json:"species"`
	Name      string     `json:"name"`
	Types     []dex.Type `json:"types"`
	Rarity    dex.Rarity `json:"rarity"`
	Health    int        `json:"health"`
	MaxHealth int        `json:"max_health"`
}

// NewCreature builds a creature of the given species at full health.
func NewCreature(s dex.Species, maxHealth int) Creature {
	return Creature{
		Species:   s.ID,
		Name:      s.Name,
		Types:     append([]dex.Type(nil), s.Types...),
		Rarity:    s.Rarity,
		Health:    maxHealth,
		MaxHealth: maxHealth,
	}
}

// Fainted reports whether health reached zero.
func (c Creature) Fainted() bool { return c.Health <= 0 }

// Clone returns a copy that shares no memory with c.
func (c Creature) Clone() Creature {
	c.Types = append([]dex.Type(nil), c.Types...)
	return c
}

// TakeDamage lowers health, clamping at 0, and returns the health left.
func (c *Creature) TakeDamage(amount int) int {
	if amount < 0 {
		amount = 0
	}
	c.Health -= amount
	if c.Health < 0 {
		c.Health = 0
	}
	return c.Health
}
