// Package profile is the player profile store: roster, pity counters,
// currency and progression, guarded by one reader/writer lock per player.
package profile

import (
	"errors"

	"github.com/xtding233/pocket-encounters/internal/gacha"
	"github.com/xtding233/pocket-encounters/internal/roster"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrNotFound          = errors.New("profile not found")
)

// XPPerLevel is the experience needed for each level.
const XPPerLevel = 50

type Profile struct {
	UserID string         `json:"user_id"`
	Roster roster.Roster  `json:"roster"`
	Pity   gacha.Pity     `json:"pity"`
	Coins  int            `json:"coins"`
	XP     int            `json:"xp"`
	Wins   int            `json:"wins"`
	Losses int            `json:"losses"`
	Items  map[string]int `json:"items,omitempty"`
}

// Level is derived from experience, starting at 1.
func (p Profile) Level() int { return 1 + p.XP/XPPerLevel }

// Clone deep-copies the profile.
func (p Profile) Clone() Profile {
	out := p
	out.Roster = p.Roster.Clone()
	if p.Items != nil {
		out.Items = make(map[string]int, len(p.Items))
		for k, v := range p.Items {
			out.Items[k] = v
		}
	}
	return out
}

// AddItem records one pulled item.
func (p *Profile) AddItem(name string) {
	if p.Items == nil {
		p.Items = make(map[string]int)
	}
	p.Items[name]++
}
