package spawn

import (
	"testing"

	"github.com/xtding233/pocket-encounters/internal/dex"
	"github.com/xtding233/pocket-encounters/internal/rng"
)

func TestBandBoundaries(t *testing.T) {
	cases := map[int]int{0: 0, 9: 0, 10: 1, 14: 1, 15: 2, 19: 2, 20: 3, 24: 3, 25: 4, 29: 4, 30: 5, 34: 5, 35: 6, 99: 6}
	for level, want := range cases {
		if got := band(level); got != want {
			t.Fatalf("band(%d)=%d, want %d", level, got, want)
		}
	}
}

func TestNoLegendaryBelowBand(t *testing.T) {
	for level := 0; level < 20; level++ {
		for roll := 0; roll <= 100; roll++ {
			if CreatureTier(level, roll) == dex.Legendary {
				t.Fatalf("legendary at level %d roll %d", level, roll)
			}
		}
	}
	if CreatureTier(35, 100) != dex.Legendary {
		t.Fatalf("top roll at level 35 should be legendary")
	}
}

func TestMassShiftsUpward(t *testing.T) {
	prevCommon, prevLegendary := 102, -1
	for b := range bandFloors {
		level := bandFloors[b]
		common, legendary := 0, 0
		for roll := 0; roll <= 100; roll++ {
			switch CreatureTier(level, roll) {
			case dex.Common:
				common++
			case dex.Legendary:
				legendary++
			}
		}
		if common >= prevCommon || legendary < prevLegendary {
			t.Fatalf("band %d: common=%d legendary=%d not monotone", b, common, legendary)
		}
		prevCommon, prevLegendary = common, legendary
	}
}

func TestSpawnCreatureRespectsBand(t *testing.T) {
	d := dex.MustLoad()
	g := NewGenerator(d, rng.NewSeeded(3))
	for i := 0; i < 5000; i++ {
		c := g.SpawnCreature(7)
		if c.Rarity == dex.Legendary {
			t.Fatalf("spawned legendary %s at level 7", c.Name)
		}
		if c.Health != c.MaxHealth || c.Health <= 0 {
			t.Fatalf("bad health %d/%d", c.Health, c.MaxHealth)
		}
		if d.RarityOf(c.Species) != c.Rarity {
			t.Fatalf("rarity mismatch for %s", c.Name)
		}
	}
}

func TestGenerateHealthRanges(t *testing.T) {
	d := dex.MustLoad()
	g := NewGenerator(d, rng.NewSeeded(11))
	for _, id := range []int{19, 25, 6, 150} {
		r := speciesHealth[d.RarityOf(id)]
		for i := 0; i < 500; i++ {
			hp := g.GenerateHealth(id)
			if hp < r.Min || hp > r.Max {
				t.Fatalf("species %d health %d outside %v", id, hp, r)
			}
		}
	}
}

func TestSpawnTrainerTeams(t *testing.T) {
	d := dex.MustLoad()
	g := NewGenerator(d, rng.NewSeeded(5))
	for i := 0; i < 2000; i++ {
		tr := g.SpawnTrainer(i % 45)
		if len(tr.Team) != teamSize[tr.Tier] {
			t.Fatalf("%s (%s) team size %d", tr.Name, tr.Tier, len(tr.Team))
		}
		seen := map[int]bool{}
		for _, c := range tr.Team {
			if seen[c.Species] {
				t.Fatalf("%s has duplicate %s", tr.Name, c.Name)
			}
			seen[c.Species] = true
			hp := teamHealth[tr.Tier]
			if c.MaxHealth < hp.Min || c.MaxHealth > hp.Max {
				t.Fatalf("%s member health %d outside %v", tr.Name, c.MaxHealth, hp)
			}
		}
		if tr.Signature != 0 && tr.Team[0].Species != tr.Signature {
			t.Fatalf("%s should lead with #%d, got #%d", tr.Name, tr.Signature, tr.Team[0].Species)
		}
	}
}

func TestEmptyTypedPoolFallsBack(t *testing.T) {
	d := dex.MustLoad()
	g := NewGenerator(d, rng.NewSeeded(8))
	// No first-generation species is dark, so every typed pool is empty.
	karen := dex.Trainer{Name: "Karen", Tier: dex.Mythic, Types: []dex.Type{dex.Dark}}
	team := g.assembleTeam(karen)
	if len(team) != teamSize[dex.Mythic] {
		t.Fatalf("team size %d", len(team))
	}
	seen := map[int]bool{}
	for _, c := range team {
		if c.Species == d.Unknown().ID || seen[c.Species] {
			t.Fatalf("bad fallback member %+v", c)
		}
		seen[c.Species] = true
	}
}

func TestTypedPoolsIntersectTrainerTypes(t *testing.T) {
	d := dex.MustLoad()
	g := NewGenerator(d, rng.NewSeeded(1))
	pools := g.typedPools([]dex.Type{dex.Water, dex.Psychic})
	for r, ids := range pools {
		for _, id := range ids {
			s, _ := d.Species(id)
			if !dex.SharesType(s.Types, []dex.Type{dex.Water, dex.Psychic}) || s.Rarity != r {
				t.Fatalf("species %s misfiled in %s pool", s.Name, r)
			}
		}
	}
	if len(pools[dex.Legendary]) != 2 { // Mewtwo, Mew
		t.Fatalf("legendary water/psychic pool=%v", pools[dex.Legendary])
	}
}
