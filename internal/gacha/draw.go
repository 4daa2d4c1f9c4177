package gacha

import (
	"errors"
	"math"

	"github.com/xtding233/pocket-encounters/internal/rng"
)

var ErrInvalidProb = errors.New("invalid probability p; must be 0..1")

// Draw is one Bernoulli trial: p <= 0 never hits, p >= 1 always hits.
// A nil src uses rng.Default.
func Draw(p float64, src rng.Source) (bool, error) {
	if !validProb(p) {
		return false, ErrInvalidProb
	}
	switch p {
	case 0:
		return false, nil
	case 1:
		return true, nil
	}
	if src == nil {
		src = rng.Default()
	}
	return src.Float64() < p, nil
}

func validProb(p float64) bool { return !math.IsNaN(p) && p >= 0 && p <= 1 }
