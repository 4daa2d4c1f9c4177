// Package roster owns a player's team: up to MaxSize creatures and the
// active slot ("buddy"). A Roster is not safe for concurrent use; the
// profile store serializes access per player.
package roster

import (
	"errors"
	"fmt"
)

// MaxSize is the team capacity.
const MaxSize = 5

var (
	ErrEmptyRoster    = errors.New("roster is empty")
	ErrRosterFull     = errors.New("roster is full")
	ErrSlotOutOfRange = errors.New("roster slot out of range")
	ErrFainted        = errors.New("creature has fainted")
)

type Roster struct {
	Creatures []Creature `json:"creatures"`
	ActiveIdx int        `json:"active"`
}

func (r *Roster) Len() int { return len(r.Creatures) }

func (r *Roster) Empty() bool { return len(r.Creatures) == 0 }

func (r *Roster) checkSlot(idx int) error {
	if idx < 0 || idx >= len(r.Creatures) {
		return fmt.Errorf("%w: %d (size %d)", ErrSlotOutOfRange, idx, len(r.Creatures))
	}
	return nil
}

// Add appends a creature. The first creature becomes active.
func (r *Roster) Add(c Creature) error {
	if len(r.Creatures) >= MaxSize {
		return ErrRosterFull
	}
	r.Creatures = append(r.Creatures, c.Clone())
	if len(r.Creatures) == 1 {
		r.ActiveIdx = 0
	}
	return nil
}

// SetActive moves the buddy pointer. Only non-fainted slots are legal.
func (r *Roster) SetActive(idx int) error {
	if err := r.checkSlot(idx); err != nil {
		return err
	}
	if r.Creatures[idx].Fainted() {
		return fmt.Errorf("%w: slot %d", ErrFainted, idx)
	}
	r.ActiveIdx = idx
	return nil
}

// Active returns a copy of the buddy.
func (r *Roster) Active() (Creature, error) {
	if r.Empty() {
		return Creature{}, ErrEmptyRoster
	}
	if err := r.checkSlot(r.ActiveIdx); err != nil {
		return Creature{}, err
	}
	return r.Creatures[r.ActiveIdx].Clone(), nil
}

// ApplyDamage lowers a slot's health, never below 0, and returns what is left.
func (r *Roster) ApplyDamage(idx, amount int) (int, error) {
	if err := r.checkSlot(idx); err != nil {
		return 0, err
	}
	return r.Creatures[idx].TakeDamage(amount), nil
}

// MarkFainted drops a slot to 0 health. Idempotent.
func (r *Roster) MarkFainted(idx int) error {
	if err := r.checkSlot(idx); err != nil {
		return err
	}
	r.Creatures[idx].Health = 0
	return nil
}

// SwitchTargets lists the non-fainted slots other than the active one.
func (r *Roster) SwitchTargets() []int {
	var out []int
	for i, c := range r.Creatures {
		if i != r.ActiveIdx && !c.Fainted() {
			out = append(out, i)
		}
	}
	return out
}

// Alive counts non-fainted creatures.
func (r *Roster) Alive() int {
	n := 0
	for _, c := range r.Creatures {
		if !c.Fainted() {
			n++
		}
	}
	return n
}

// HealAll restores every creature to full health.
func (r *Roster) HealAll() {
	for i := range r.Creatures {
		r.Creatures[i].Health = r.Creatures[i].MaxHealth
	}
}

// Clone deep-copies the roster.
func (r Roster) Clone() Roster {
	out := Roster{ActiveIdx: r.ActiveIdx}
	if r.Creatures != nil {
		out.Creatures = make([]Creature, len(r.Creatures))
		for i, c := range r.Creatures {
			out.Creatures[i] = c.Clone()
		}
	}
	return out
}
