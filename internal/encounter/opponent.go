package encounter

import (
	"github.com/xtding233/pocket-encounters/internal/dex"
	"github.com/xtding233/pocket-encounters/internal/roster"
	"github.com/xtding233/pocket-encounters/internal/spawn"
)

// Opponent is the other side of a battle: a party fought in order. A wild
// creature is a party of one with no trainer.
type Opponent struct {
	Trainer *dex.Trainer
	Team    []roster.Creature
	idx     int
}

func WildOpponent(c roster.Creature) *Opponent {
	return &Opponent{Team: []roster.Creature{c.Clone()}}
}

func TrainerOpponent(t spawn.Trainer) *Opponent {
	tr := t.Trainer
	team := make([]roster.Creature, len(t.Team))
	for i, c := range t.Team {
		team[i] = c.Clone()
	}
	return &Opponent{Trainer: &tr, Team: team}
}

func (o *Opponent) IsTrainer() bool { return o.Trainer != nil }

// Active is the creature currently fighting; nil once the party is exhausted.
func (o *Opponent) Active() *roster.Creature {
	if o.idx >= len(o.Team) {
		return nil
	}
	return &o.Team[o.idx]
}

// Advance sends out the next non-fainted member and reports whether one
// was left.
func (o *Opponent) Advance() bool {
	for o.idx++; o.idx < len(o.Team); o.idx++ {
		if !o.Team[o.idx].Fainted() {
			return true
		}
	}
	return false
}

// Defeated reports whether every member has fainted.
func (o *Opponent) Defeated() bool {
	for _, c := range o.Team {
		if !c.Fainted() {
			return false
		}
	}
	return true
}

// Name is the trainer's name, or the wild creature's.
func (o *Opponent) Name() string {
	if o.Trainer != nil {
		return o.Trainer.Name
	}
	if len(o.Team) == 0 {
		return ""
	}
	return o.Team[0].Name
}
