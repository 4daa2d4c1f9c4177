package roster

import (
	"errors"
	"testing"

	"github.com/xtding233/pocket-encounters/internal/dex"
)

func mon(name string, hp int) Creature {
	return Creature{Name: name, Types: []dex.Type{dex.Normal}, Health: hp, MaxHealth: hp}
}

func TestAddAndCapacity(t *testing.T) {
	var r Roster
	if _, err := r.Active(); !errors.Is(err, ErrEmptyRoster) {
		t.Fatalf("empty roster Active: got %v", err)
	}
	for i := 0; i < MaxSize; i++ {
		if err := r.Add(mon("m", 10)); err != nil {
			t.Fatal(err)
		}
	}
	if err := r.Add(mon("extra", 10)); !errors.Is(err, ErrRosterFull) {
		t.Fatalf("want ErrRosterFull, got %v", err)
	}
	if r.ActiveIdx != 0 {
		t.Fatalf("first creature should be active, got %d", r.ActiveIdx)
	}
}

func TestApplyDamageClamps(t *testing.T) {
	var r Roster
	_ = r.Add(mon("a", 1))
	left, err := r.ApplyDamage(0, 5)
	if err != nil {
		t.Fatal(err)
	}
	if left != 0 || r.Creatures[0].Health != 0 {
		t.Fatalf("health should clamp at 0, got %d", left)
	}
	if _, err := r.ApplyDamage(3, 1); !errors.Is(err, ErrSlotOutOfRange) {
		t.Fatalf("want ErrSlotOutOfRange, got %v", err)
	}
	left, _ = r.ApplyDamage(0, -4)
	if left != 0 {
		t.Fatalf("negative damage must not heal, got %d", left)
	}
}

func TestMarkFaintedIdempotent(t *testing.T) {
	var r Roster
	_ = r.Add(mon("a", 12))
	for i := 0; i < 3; i++ {
		if err := r.MarkFainted(0); err != nil {
			t.Fatal(err)
		}
		if r.Creatures[0].Health != 0 || !r.Creatures[0].Fainted() {
			t.Fatalf("iteration %d: not fainted", i)
		}
	}
}

func TestSetActiveRules(t *testing.T) {
	var r Roster
	_ = r.Add(mon("a", 10))
	_ = r.Add(mon("b", 0))
	_ = r.Add(mon("c", 7))
	if err := r.SetActive(1); !errors.Is(err, ErrFainted) {
		t.Fatalf("switch to fainted slot: got %v", err)
	}
	if err := r.SetActive(9); !errors.Is(err, ErrSlotOutOfRange) {
		t.Fatalf("switch out of range: got %v", err)
	}
	if err := r.SetActive(2); err != nil {
		t.Fatal(err)
	}
	a, _ := r.Active()
	if a.Name != "c" {
		t.Fatalf("active=%s", a.Name)
	}
	if got := r.SwitchTargets(); len(got) != 1 || got[0] != 0 {
		t.Fatalf("SwitchTargets=%v", got)
	}
	if r.Alive() != 2 {
		t.Fatalf("Alive=%d", r.Alive())
	}
}

func TestCloneIsDeep(t *testing.T) {
	var r Roster
	_ = r.Add(mon("a", 10))
	cp := r.Clone()
	cp.Creatures[0].Health = 1
	cp.Creatures[0].Types[0] = dex.Fire
	if r.Creatures[0].Health != 10 || r.Creatures[0].Types[0] != dex.Normal {
		t.Fatalf("clone shares memory with original")
	}
	a, _ := r.Active()
	a.Health = 0
	if r.Creatures[0].Health != 10 {
		t.Fatalf("Active must return a copy")
	}
}

func TestHealAll(t *testing.T) {
	var r Roster
	_ = r.Add(mon("a", 10))
	_ = r.Add(mon("b", 8))
	_, _ = r.ApplyDamage(0, 10)
	_, _ = r.ApplyDamage(1, 3)
	r.HealAll()
	if r.Creatures[0].Health != 10 || r.Creatures[1].Health != 8 {
		t.Fatalf("HealAll: %+v", r.Creatures)
	}
}
