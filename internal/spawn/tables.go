package spawn

import "github.com/xtding233/pocket-encounters/internal/dex"

// Level bands: <10, 10-14, 15-19, 20-24, 25-29, 30-34, >=35.
var bandFloors = [...]int{0, 10, 15, 20, 25, 30, 35}

// band maps a player level to its index in the threshold tables.
func band(level int) int {
	b := 0
	for i, floor := range bandFloors {
		if level >= floor {
			b = i
		}
	}
	return b
}

// Inclusive upper bounds of a 0..100 roll for Common, Rare and Mythic.
// Rolls above the Mythic bound are Legendary, so a bound of 100 makes
// Legendary unreachable in that band.
var creatureCutoffs = [len(bandFloors)][3]int{
	{74, 96, 100},
	{64, 92, 100},
	{54, 86, 100},
	{44, 79, 97},
	{34, 70, 94},
	{24, 60, 90},
	{14, 50, 85},
}

// Inclusive upper bounds for Common and Mythic trainers; above is Legendary.
var trainerCutoffs = [len(bandFloors)][2]int{
	{89, 100},
	{79, 100},
	{69, 97},
	{59, 94},
	{49, 90},
	{39, 85},
	{29, 79},
}

// healthRange is an inclusive [Min, Max] range.
type healthRange struct{ Min, Max int }

// Wild and gifted creature health by species tier.
var speciesHealth = map[dex.Rarity]healthRange{
	dex.Common:    {10, 20},
	dex.Rare:      {15, 30},
	dex.Mythic:    {20, 40},
	dex.Legendary: {30, 50},
}

// Team member health by trainer tier.
var teamHealth = map[dex.Rarity]healthRange{
	dex.Common:    {15, 25},
	dex.Mythic:    {25, 40},
	dex.Legendary: {35, 55},
}

var teamSize = map[dex.Rarity]int{
	dex.Common:    2,
	dex.Mythic:    3,
	dex.Legendary: 4,
}

// Relative weights of Common, Rare, Mythic, Legendary team members.
var teamRarityWeights = map[dex.Rarity][4]int{
	dex.Common:    {70, 30, 0, 0},
	dex.Mythic:    {20, 45, 35, 0},
	dex.Legendary: {0, 30, 50, 20},
}

// maxDrawAttempts caps duplicate or empty-pool rejections for one team slot
// before falling back to the unfiltered pool.
const maxDrawAttempts = 32
