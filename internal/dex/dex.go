// Package dex holds the static tables of the minigame: the type chart,
// species master data, rarity tiers and the trainer master list. Tables are
// parsed once and are read-only afterwards, so a *Dex is safe to share.
package dex

import (
	"embed"
	"errors"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed data/*.yaml
var dataFS embed.FS

var (
	ErrUnknownSpecies = errors.New("unknown species")
	ErrEmptyTier      = errors.New("empty tier")
)

// TrainerTiers are the tiers of the trainer master list.
var TrainerTiers = []Rarity{Common, Mythic, Legendary}

// Species is one entry of the master data.
type Species struct {
	ID     int
	Name   string
	Desc   string
	Types  []Type
	Rarity Rarity
}

// Trainer is one entry of the trainer master list.
type Trainer struct {
	Name      string
	Tier      Rarity
	Types     []Type
	Signature int // forced first team member; 0 = none
}

type Dex struct {
	chart    [NumTypes][NumTypes]float64
	species  map[int]Species
	byName   map[string]int
	unknown  Species
	tiers    map[Rarity][]int
	trainers map[Rarity][]Trainer
}

// raw YAML documents
type rawTypes struct {
	Order []string                      `yaml:"order"`
	Chart map[string]map[string]float64 `yaml:"chart"`
}

type rawSpecies struct {
	ID    int    `yaml:"id"`
	Name  string `yaml:"name"`
	Types string `yaml:"types"`
	Desc  string `yaml:"desc"`
}

type rawSpeciesFile struct {
	Unknown rawSpecies       `yaml:"unknown"`
	Tiers   map[string][]int `yaml:"tiers"`
	Species []rawSpecies     `yaml:"species"`
}

type rawTrainer struct {
	Name      string `yaml:"name"`
	Types     string `yaml:"types"`
	Signature int    `yaml:"signature"`
}

// Load parses the embedded tables.
func Load() (*Dex, error) {
	types, err := dataFS.ReadFile("data/types.yaml")
	if err != nil {
		return nil, err
	}
	species, err := dataFS.ReadFile("data/species.yaml")
	if err != nil {
		return nil, err
	}
	trainers, err := dataFS.ReadFile("data/trainers.yaml")
	if err != nil {
		return nil, err
	}
	return Parse(types, species, trainers)
}

// MustLoad is Load for process start; it panics on malformed embedded data.
func MustLoad() *Dex {
	d, err := Load()
	if err != nil {
		panic(fmt.Sprintf("dex: %v", err))
	}
	return d
}

// Parse builds a Dex from the three YAML documents.
func Parse(typesYAML, speciesYAML, trainersYAML []byte) (*Dex, error) {
	d := &Dex{
		species:  make(map[int]Species),
		byName:   make(map[string]int),
		tiers:    make(map[Rarity][]int),
		trainers: make(map[Rarity][]Trainer),
	}
	if err := d.parseTypes(typesYAML); err != nil {
		return nil, fmt.Errorf("types: %w", err)
	}
	if err := d.parseSpecies(speciesYAML); err != nil {
		return nil, fmt.Errorf("species: %w", err)
	}
	if err := d.parseTrainers(trainersYAML); err != nil {
		return nil, fmt.Errorf("trainers: %w", err)
	}
	if err := d.checkTiers(); err != nil {
		return nil, err
	}
	return d, nil
}

// checkTiers requires every species tier and every trainer tier to have
// at least one entry; spawning draws from each of them.
func (d *Dex) checkTiers() error {
	for _, r := range []Rarity{Common, Rare, Mythic, Legendary} {
		if len(d.tiers[r]) == 0 {
			return fmt.Errorf("species: %w: %s", ErrEmptyTier, r)
		}
	}
	for _, r := range TrainerTiers {
		if len(d.trainers[r]) == 0 {
			return fmt.Errorf("trainers: %w: %s", ErrEmptyTier, r)
		}
	}
	return nil
}

func (d *Dex) parseTypes(b []byte) error {
	var raw rawTypes
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return err
	}
	if len(raw.Order) != NumTypes {
		return fmt.Errorf("order lists %d types, want %d", len(raw.Order), NumTypes)
	}
	for i, name := range raw.Order {
		t, err := ParseType(name)
		if err != nil {
			return err
		}
		if int(t) != i {
			return fmt.Errorf("type %q at position %d, want %d", name, i, t)
		}
	}
	for i := range d.chart {
		for j := range d.chart[i] {
			d.chart[i][j] = 1
		}
	}
	for atkName, row := range raw.Chart {
		atk, err := ParseType(atkName)
		if err != nil {
			return err
		}
		for defName, mult := range row {
			def, err := ParseType(defName)
			if err != nil {
				return err
			}
			if mult < 0 {
				return fmt.Errorf("negative multiplier %s->%s", atkName, defName)
			}
			d.chart[atk][def] = mult
		}
	}
	return nil
}

func (d *Dex) parseSpecies(b []byte) error {
	var raw rawSpeciesFile
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return err
	}
	rarity := make(map[int]Rarity)
	for name, ids := range raw.Tiers {
		var r Rarity
		switch foldName(name) {
		case "rare":
			r = Rare
		case "mythic":
			r = Mythic
		case "legendary":
			r = Legendary
		default:
			return fmt.Errorf("unknown tier %q", name)
		}
		for _, id := range ids {
			if prev, ok := rarity[id]; ok {
				return fmt.Errorf("species %d in both %s and %s", id, prev, r)
			}
			rarity[id] = r
		}
	}

	unknown, err := toSpecies(raw.Unknown, Common)
	if err != nil {
		return err
	}
	d.unknown = unknown

	for _, rs := range raw.Species {
		if rs.ID <= 0 {
			return fmt.Errorf("species %q has invalid id %d", rs.Name, rs.ID)
		}
		if _, dup := d.species[rs.ID]; dup {
			return fmt.Errorf("duplicate species id %d", rs.ID)
		}
		s, err := toSpecies(rs, rarity[rs.ID])
		if err != nil {
			return err
		}
		d.species[s.ID] = s
		d.byName[foldName(s.Name)] = s.ID
		d.tiers[s.Rarity] = append(d.tiers[s.Rarity], s.ID)
	}
	for id := range rarity {
		if _, ok := d.species[id]; !ok {
			return fmt.Errorf("tier lists unknown species %d", id)
		}
	}
	for r := range d.tiers {
		sort.Ints(d.tiers[r])
	}
	return nil
}

func toSpecies(rs rawSpecies, r Rarity) (Species, error) {
	types, err := ParseTypes(rs.Types)
	if err != nil {
		return Species{}, fmt.Errorf("species %d: %w", rs.ID, err)
	}
	return Species{ID: rs.ID, Name: rs.Name, Desc: rs.Desc, Types: types, Rarity: r}, nil
}

func (d *Dex) parseTrainers(b []byte) error {
	var raw map[string][]rawTrainer
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return err
	}
	for tierName, list := range raw {
		var tier Rarity
		switch foldName(tierName) {
		case "common":
			tier = Common
		case "mythic":
			tier = Mythic
		case "legendary":
			tier = Legendary
		default:
			return fmt.Errorf("unknown trainer tier %q", tierName)
		}
		for _, rt := range list {
			types, err := ParseTypes(rt.Types)
			if err != nil {
				return fmt.Errorf("trainer %q: %w", rt.Name, err)
			}
			if rt.Signature != 0 {
				if _, ok := d.species[rt.Signature]; !ok {
					return fmt.Errorf("trainer %q: signature %d is not a species", rt.Name, rt.Signature)
				}
			}
			d.trainers[tier] = append(d.trainers[tier], Trainer{
				Name:      rt.Name,
				Tier:      tier,
				Types:     types,
				Signature: rt.Signature,
			})
		}
	}
	return nil
}

// Species returns the record for id. Unknown ids yield the fallback record
// together with ErrUnknownSpecies; callers may keep using the record.
func (d *Dex) Species(id int) (Species, error) {
	if s, ok := d.species[id]; ok {
		return s, nil
	}
	return d.unknown, fmt.Errorf("%w: #%d", ErrUnknownSpecies, id)
}

// Lookup resolves a species by name, case-insensitively, with the same
// fallback behavior as Species.
func (d *Dex) Lookup(name string) (Species, error) {
	if id, ok := d.byName[foldName(name)]; ok {
		return d.species[id], nil
	}
	return d.unknown, fmt.Errorf("%w: %q", ErrUnknownSpecies, name)
}

// Unknown is the designated fallback record.
func (d *Dex) Unknown() Species { return d.unknown }

// RarityOf returns the tier of a species; unknown ids are Common.
func (d *Dex) RarityOf(id int) Rarity {
	return d.species[id].Rarity
}

// Tier lists the species indices of one rarity tier in ascending order.
func (d *Dex) Tier(r Rarity) []int { return d.tiers[r] }

// Trainers lists the trainer identities of one tier.
func (d *Dex) Trainers(tier Rarity) []Trainer { return d.trainers[tier] }

// Effectiveness is matrix[attacker][defender].
func (d *Dex) Effectiveness(attacker, defender Type) float64 {
	if int(attacker) >= NumTypes || int(defender) >= NumTypes {
		return 1
	}
	return d.chart[attacker][defender]
}

// Count is the number of known species, excluding the fallback.
func (d *Dex) Count() int { return len(d.species) }
