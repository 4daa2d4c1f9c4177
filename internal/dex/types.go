package dex

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Type is one of the 18 elemental types.
type Type uint8

const (
	Normal Type = iota
	Fire
	Water
	Electric
	Grass
	Ice
	Fighting
	Poison
	Ground
	Flying
	Psychic
	Bug
	Rock
	Ghost
	Dragon
	Dark
	Steel
	Fairy

	NumTypes = 18
)

// TypeSeparator joins dual types in their string form, e.g. "grass/poison".
const TypeSeparator = "/"

var ErrUnknownType = errors.New("unknown type")

var typeNames = [NumTypes]string{
	"normal", "fire", "water", "electric", "grass", "ice", "fighting", "poison", "ground",
	"flying", "psychic", "bug", "rock", "ghost", "dragon", "dark", "steel", "fairy",
}

var titleCaser = cases.Title(language.English)

func (t Type) String() string {
	if int(t) >= NumTypes {
		return "unknown"
	}
	return typeNames[t]
}

// Title is the display form, e.g. "Grass".
func (t Type) Title() string { return titleCaser.String(t.String()) }

// ParseType resolves a type name case-insensitively.
func ParseType(s string) (Type, error) {
	key := foldName(s)
	for i, n := range typeNames {
		if n == key {
			return Type(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownType, s)
}

// ParseTypes splits a single or dual type string on TypeSeparator.
func ParseTypes(s string) ([]Type, error) {
	parts := strings.Split(s, TypeSeparator)
	if len(parts) > 2 {
		return nil, fmt.Errorf("%w: %q has more than two types", ErrUnknownType, s)
	}
	out := make([]Type, 0, len(parts))
	for _, p := range parts {
		t, err := ParseType(p)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// FormatTypes renders types in display form joined by TypeSeparator.
func FormatTypes(ts []Type) string {
	names := make([]string, len(ts))
	for i, t := range ts {
		names[i] = t.Title()
	}
	return strings.Join(names, TypeSeparator)
}

// SharesType reports whether any element of a is in b.
func SharesType(a, b []Type) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}

// Rarity drives spawn odds, health ranges and attack rolls.
type Rarity int

const (
	Common Rarity = iota
	Rare
	Mythic
	Legendary
)

func (r Rarity) String() string {
	switch r {
	case Common:
		return "common"
	case Rare:
		return "rare"
	case Mythic:
		return "mythic"
	case Legendary:
		return "legendary"
	}
	return "unknown"
}

// Title is the display form, e.g. "Mythic".
func (r Rarity) Title() string { return titleCaser.String(r.String()) }

var foldCaser = cases.Fold()

func foldName(s string) string {
	return foldCaser.String(strings.TrimSpace(s))
}
