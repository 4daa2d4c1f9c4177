// Package battle resolves single attacks: attack rolls, type multipliers and
// damage.
package battle

import (
	"math"

	"github.com/xtding233/pocket-encounters/internal/dex"
	"github.com/xtding233/pocket-encounters/internal/rng"
	"github.com/xtding233/pocket-encounters/internal/roster"
)

// IdleChance is the probability that the opponent does nothing on its turn.
const IdleChance = 0.12

// attackRange is a half-open [Min, Max) roll range.
type attackRange struct{ Min, Max int }

var attackRanges = map[dex.Rarity]attackRange{
	dex.Common:    {2, 7},
	dex.Rare:      {3, 9},
	dex.Mythic:    {4, 11},
	dex.Legendary: {5, 13},
}

// Effect is the narrative band of a multiplier.
type Effect int

const (
	NotVeryEffective Effect = iota
	Effective
	SuperEffective
)

func (e Effect) String() string {
	switch e {
	case SuperEffective:
		return "It's super effective!"
	case Effective:
		return "It's effective."
	}
	return "It's not very effective..."
}

// Classify buckets a multiplier: >=2 super, [1,2) effective, <1 not very.
func Classify(mult float64) Effect {
	switch {
	case mult >= 2:
		return SuperEffective
	case mult >= 1:
		return Effective
	}
	return NotVeryEffective
}

// Hit is the result of one attack.
type Hit struct {
	Roll       int
	Multiplier float64
	Damage     int
	Effect     Effect
}

type Resolver struct {
	dex        *dex.Dex
	rng        rng.Source
	idleChance float64
}

func NewResolver(d *dex.Dex, src rng.Source) *Resolver {
	if src == nil {
		src = rng.Default()
	}
	return &Resolver{dex: d, rng: src, idleChance: IdleChance}
}

// RollAttack draws the raw attack value for a species from its tier range.
func (r *Resolver) RollAttack(speciesID int) int {
	ar := attackRanges[r.dex.RarityOf(speciesID)]
	return ar.Min + r.rng.IntN(ar.Max-ar.Min)
}

// TypeMultiplier multiplies matrix[a][d] over every attacker x defender type
// pair.
func (r *Resolver) TypeMultiplier(attacker, defender []dex.Type) float64 {
	mult := 1.0
	for _, a := range attacker {
		for _, d := range defender {
			mult *= r.dex.Effectiveness(a, d)
		}
	}
	return mult
}

// Damage is round(roll * multiplier).
func Damage(roll int, multiplier float64) int {
	return int(math.Round(float64(roll) * multiplier))
}

// ResolveTurn rolls the attacker's attack against a precomputed multiplier.
// It does not mutate either creature.
func (r *Resolver) ResolveTurn(attacker, defender roster.Creature, multiplier float64) Hit {
	roll := r.RollAttack(attacker.Species)
	return Hit{
		Roll:       roll,
		Multiplier: multiplier,
		Damage:     Damage(roll, multiplier),
		Effect:     Classify(multiplier),
	}
}

// Attack computes the multiplier from both creatures' types and resolves.
func (r *Resolver) Attack(attacker, defender roster.Creature) Hit {
	return r.ResolveTurn(attacker, defender, r.TypeMultiplier(attacker.Types, defender.Types))
}

// OpponentIdles rolls the non-player side's chance to skip its turn.
func (r *Resolver) OpponentIdles() bool {
	return rng.Chance(r.rng, r.idleChance)
}

// Initiative draws 1..20 for each side. Ties go to the opponent.
func (r *Resolver) Initiative() (player, opponent int, playerFirst bool) {
	player = rng.Between(r.rng, 1, 20)
	opponent = rng.Between(r.rng, 1, 20)
	return player, opponent, PlayerFirst(player, opponent)
}

// PlayerFirst reports whether the player acts first for the given rolls.
func PlayerFirst(player, opponent int) bool { return player > opponent }
