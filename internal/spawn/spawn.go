// Package spawn picks wild creatures and trainers banded by player level.
package spawn

import (
	"github.com/xtding233/pocket-encounters/internal/dex"
	"github.com/xtding233/pocket-encounters/internal/rng"
	"github.com/xtding233/pocket-encounters/internal/roster"
)

// Trainer is a spawned opponent with its assembled team.
type Trainer struct {
	dex.Trainer
	Team []roster.Creature
}

// Generator is safe for concurrent use when its rng.Source is.
type Generator struct {
	dex *dex.Dex
	rng rng.Source
}

func NewGenerator(d *dex.Dex, src rng.Source) *Generator {
	if src == nil {
		src = rng.Default()
	}
	return &Generator{dex: d, rng: src}
}

// roll draws the uniform 0..100 value used for tier selection.
func (g *Generator) roll() int { return g.rng.IntN(101) }

// CreatureTier is the rarity tier a roll lands on in a level band.
func CreatureTier(level, roll int) dex.Rarity {
	c := creatureCutoffs[band(level)]
	switch {
	case roll <= c[0]:
		return dex.Common
	case roll <= c[1]:
		return dex.Rare
	case roll <= c[2]:
		return dex.Mythic
	}
	return dex.Legendary
}

// TrainerTier is the trainer tier a roll lands on in a level band.
func TrainerTier(level, roll int) dex.Rarity {
	c := trainerCutoffs[band(level)]
	switch {
	case roll <= c[0]:
		return dex.Common
	case roll <= c[1]:
		return dex.Mythic
	}
	return dex.Legendary
}

// SpawnCreature picks a wild creature for a player of the given level.
func (g *Generator) SpawnCreature(level int) roster.Creature {
	tier := CreatureTier(level, g.roll())
	pool := g.dex.Tier(tier)
	id := pool[g.rng.IntN(len(pool))]
	s, _ := g.dex.Species(id)
	return roster.NewCreature(s, g.GenerateHealth(id))
}

// GenerateHealth draws max health from the species' tier range.
func (g *Generator) GenerateHealth(speciesID int) int {
	r := speciesHealth[g.dex.RarityOf(speciesID)]
	return rng.Between(g.rng, r.Min, r.Max)
}

// SpawnTrainer picks a trainer identity and assembles its team.
func (g *Generator) SpawnTrainer(level int) Trainer {
	tier := TrainerTier(level, g.roll())
	list := g.dex.Trainers(tier)
	identity := list[g.rng.IntN(len(list))]
	return Trainer{Trainer: identity, Team: g.assembleTeam(identity)}
}

func (g *Generator) assembleTeam(t dex.Trainer) []roster.Creature {
	size := teamSize[t.Tier]
	hp := teamHealth[t.Tier]
	pools := g.typedPools(t.Types)
	used := make(map[int]bool, size)
	team := make([]roster.Creature, 0, size)

	add := func(id int) {
		used[id] = true
		s, _ := g.dex.Species(id)
		team = append(team, roster.NewCreature(s, rng.Between(g.rng, hp.Min, hp.Max)))
	}

	if t.Signature != 0 {
		add(t.Signature)
	}
	for len(team) < size {
		add(g.drawMember(t.Tier, pools, used))
	}
	return team
}

// typedPools groups species sharing a type with the trainer, per rarity.
func (g *Generator) typedPools(types []dex.Type) map[dex.Rarity][]int {
	pools := make(map[dex.Rarity][]int)
	for _, r := range []dex.Rarity{dex.Common, dex.Rare, dex.Mythic, dex.Legendary} {
		for _, id := range g.dex.Tier(r) {
			s, _ := g.dex.Species(id)
			if dex.SharesType(s.Types, types) {
				pools[r] = append(pools[r], id)
			}
		}
	}
	return pools
}

// drawMember samples one unused species for a team slot. Typed pools may be
// empty (no species of the trainer's type in a tier) or exhausted by
// duplicates; after maxDrawAttempts rejections it falls back to the
// unfiltered tier pool and finally to any unused species.
func (g *Generator) drawMember(tier dex.Rarity, pools map[dex.Rarity][]int, used map[int]bool) int {
	var r dex.Rarity
	for attempt := 0; attempt < maxDrawAttempts; attempt++ {
		r = g.weightedRarity(tier)
		pool := pools[r]
		if len(pool) == 0 {
			continue
		}
		id := pool[g.rng.IntN(len(pool))]
		if !used[id] {
			return id
		}
	}
	if id, ok := g.pickUnused(g.dex.Tier(r), used); ok {
		return id
	}
	for _, fallback := range []dex.Rarity{dex.Common, dex.Rare, dex.Mythic, dex.Legendary} {
		if id, ok := g.pickUnused(g.dex.Tier(fallback), used); ok {
			return id
		}
	}
	return g.dex.Unknown().ID
}

func (g *Generator) pickUnused(pool []int, used map[int]bool) (int, bool) {
	free := make([]int, 0, len(pool))
	for _, id := range pool {
		if !used[id] {
			free = append(free, id)
		}
	}
	if len(free) == 0 {
		return 0, false
	}
	return free[g.rng.IntN(len(free))], true
}

func (g *Generator) weightedRarity(tier dex.Rarity) dex.Rarity {
	weights := teamRarityWeights[tier]
	total := 0
	for _, w := range weights {
		total += w
	}
	n := g.rng.IntN(total)
	for i, w := range weights {
		if n < w {
			return dex.Rarity(i)
		}
		n -= w
	}
	return dex.Common
}
