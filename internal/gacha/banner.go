package gacha

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xtding233/pocket-encounters/internal/rng"
)

// Tier is the star rating of a pull; TierNone means nothing was won.
type Tier int

const (
	TierNone  Tier = 0
	ThreeStar Tier = 3
	FourStar  Tier = 4
	FiveStar  Tier = 5
)

func (t Tier) String() string {
	if t == TierNone {
		return "nothing"
	}
	return fmt.Sprintf("%d★", int(t))
}

// Pity is one player's counter state.
type Pity struct {
	Big       int  `json:"big_pity"`   // pulls since the last 5★
	Small     int  `json:"small_pity"` // pulls since the last 4★
	Guarantee bool `json:"guarantee"`  // next 5★ is forced to the premium item
}

// Outcome reports one pull's result.
type Outcome struct {
	Tier     Tier
	Item     string
	Featured bool // 5★ premium item, or 4★ from the featured pool
}

// SecondTier controls 4★ pulls. Below Pity the pull is eligible with
// BaseProb, at exactly Pity with AtPityProb, above Pity always. An eligible
// pull is a 4★ with probability Gate, otherwise a 3★.
type SecondTier struct {
	Pity       int
	BaseProb   float64
	AtPityProb float64
	Gate       float64
	FeaturedP  float64 // share of 4★ drawn from the featured pool
}

// Items names what each tier awards.
type Items struct {
	Premium      string
	Fallback     string
	FourFeatured []string
	FourStandard []string
	Three        []string
}

// BannerParams is everything a Banner needs; see internal/banner for the
// YAML form.
type BannerParams struct {
	Name         string
	PBase        float64 // 5★ base probability far from pity
	Soft         SoftPity
	FeaturedProb float64 // coin flip for the premium 5★ without guarantee
	Second       SecondTier
	Items        Items
}

var ErrBannerConfig = errors.New("invalid banner config")

// Banner evaluates pulls. It holds no per-player state; counters travel in
// and out through Pity, so one Banner serves every player.
type Banner struct {
	params BannerParams
}

// NewBanner validates params.
func NewBanner(p BannerParams) (*Banner, error) {
	var errs []string
	if !validProb(p.PBase) || p.PBase == 0 {
		errs = append(errs, "p_base must be in (0,1]")
	}
	if err := p.Soft.normalize(); err != nil {
		errs = append(errs, "soft pity: "+err.Error())
	}
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"featured_prob", p.FeaturedProb},
		{"second.base_prob", p.Second.BaseProb},
		{"second.at_pity_prob", p.Second.AtPityProb},
		{"second.gate", p.Second.Gate},
		{"second.featured_prob", p.Second.FeaturedP},
	} {
		if !validProb(f.v) {
			errs = append(errs, f.name+" must be in [0,1]")
		}
	}
	if p.Second.Pity <= 0 {
		errs = append(errs, "second.pity must be >= 1")
	}
	if p.Items.Premium == "" || p.Items.Fallback == "" {
		errs = append(errs, "items.premium and items.fallback are required")
	}
	if len(p.Items.FourFeatured) == 0 || len(p.Items.FourStandard) == 0 || len(p.Items.Three) == 0 {
		errs = append(errs, "every item pool needs at least one item")
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrBannerConfig, strings.Join(errs, "; "))
	}
	return &Banner{params: p}, nil
}

// Params returns a copy of the banner parameters.
func (b *Banner) Params() BannerParams { return b.params }

// TopTierProb is the 5★ probability for a pull made at bigPity.
func (b *Banner) TopTierProb(bigPity int) float64 {
	return b.params.Soft.Prob(bigPity, b.params.PBase)
}

// SecondTierProb is the probability that a pull at smallPity reaches the
// second-tier roll.
func (b *Banner) SecondTierProb(smallPity int) float64 {
	s := b.params.Second
	switch {
	case smallPity < s.Pity:
		return s.BaseProb
	case smallPity == s.Pity:
		return s.AtPityProb
	}
	return 1
}

// Pull performs one pull from state p and returns the outcome with the next
// state. 5★: premium when Guarantee is set or the coin flip wins, which
// clears Guarantee; otherwise the fallback item, which sets it.
func (b *Banner) Pull(p Pity, src rng.Source) (Outcome, Pity, error) {
	if src == nil {
		src = rng.Default()
	}
	next := p

	top, err := Draw(b.TopTierProb(p.Big), src)
	if err != nil {
		return Outcome{}, p, err
	}
	if top {
		next.Big = 0
		next.Small = p.Small + 1
		featured := p.Guarantee
		if !featured {
			if featured, err = Draw(b.params.FeaturedProb, src); err != nil {
				return Outcome{}, p, err
			}
		}
		out := Outcome{Tier: FiveStar, Featured: featured}
		if featured {
			out.Item = b.params.Items.Premium
			next.Guarantee = false
		} else {
			out.Item = b.params.Items.Fallback
			next.Guarantee = true
		}
		return out, next, nil
	}
	next.Big = p.Big + 1

	eligible, err := Draw(b.SecondTierProb(p.Small), src)
	if err != nil {
		return Outcome{}, p, err
	}
	if !eligible {
		next.Small = p.Small + 1
		return Outcome{Tier: TierNone}, next, nil
	}
	four, err := Draw(b.params.Second.Gate, src)
	if err != nil {
		return Outcome{}, p, err
	}
	if !four {
		next.Small = p.Small + 1
		return Outcome{Tier: ThreeStar, Item: pick(b.params.Items.Three, src)}, next, nil
	}
	next.Small = 0
	featured, err := Draw(b.params.Second.FeaturedP, src)
	if err != nil {
		return Outcome{}, p, err
	}
	pool := b.params.Items.FourStandard
	if featured {
		pool = b.params.Items.FourFeatured
	}
	return Outcome{Tier: FourStar, Item: pick(pool, src), Featured: featured}, next, nil
}

// PullN performs n sequential pulls.
func (b *Banner) PullN(p Pity, n int, src rng.Source) ([]Outcome, Pity, error) {
	outs := make([]Outcome, 0, n)
	for i := 0; i < n; i++ {
		out, next, err := b.Pull(p, src)
		if err != nil {
			return outs, p, err
		}
		outs = append(outs, out)
		p = next
	}
	return outs, p, nil
}

func pick(pool []string, src rng.Source) string {
	return pool[src.IntN(len(pool))]
}
