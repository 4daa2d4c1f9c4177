// resolve.go
package banner

import (
	"math"

	"github.com/xtding233/pocket-encounters/internal/gacha"
	"github.com/xtding233/pocket-encounters/internal/token"
)

// Resolve validates a merged config and turns it into engine params and the
// pull price.
func Resolve(cfg RawConfig) (gacha.BannerParams, token.Token, error) {
	if err := ValidateRaw(cfg); err != nil {
		return gacha.BannerParams{}, token.Token{}, err
	}
	pity := *cfg.Draw.Pity
	p := gacha.BannerParams{
		Name:         cfg.Name,
		PBase:        *cfg.Draw.PBase,
		Soft:         gacha.SoftPity{Pity: pity, Mode: gacha.ModeNone},
		FeaturedProb: 0.5,
		Second: gacha.SecondTier{
			Pity:       *cfg.Second.Pity,
			BaseProb:   *cfg.Second.BaseProb,
			AtPityProb: *cfg.Second.AtPityProb,
			Gate:       *cfg.Second.Gate,
			FeaturedP:  *cfg.Second.FeaturedProb,
		},
		Items: gacha.Items{
			Premium:      cfg.Items.Premium,
			Fallback:     cfg.Items.Fallback,
			FourFeatured: cfg.Items.FourFeatured,
			FourStandard: cfg.Items.FourStandard,
			Three:        cfg.Items.Three,
		},
	}
	if cfg.Banner != nil && cfg.Banner.FeaturedProb != nil {
		p.FeaturedProb = *cfg.Banner.FeaturedProb
	}
	if s := cfg.Draw.Soft; s != nil && s.Mode != "" && s.Mode != "none" {
		p.Soft.Mode = gacha.Mode(s.Mode)
		p.Soft.Easing = gacha.Easing(s.Easing)
		if s.StartAt != nil {
			p.Soft.StartAt = *s.StartAt
		} else if s.StartPct != nil {
			startAt := int(math.Ceil(*s.StartPct * float64(pity)))
			if startAt >= pity {
				startAt = pity - 1
			}
			p.Soft.StartAt = startAt
		}
		if s.Increment != nil {
			p.Soft.Increment = *s.Increment
		}
		if s.Target != nil {
			p.Soft.TargetProb = *s.Target
		}
	}

	cost := token.Token{Name: "Poke Coins"}
	if t := cfg.Tokens; t != nil {
		if t.Name != "" {
			cost.Name = t.Name
		}
		if t.PerDraw != nil {
			cost.PerDraw = *t.PerDraw
		}
		if t.PerTenDraw != nil {
			cost.PerTenDraw = *t.PerTenDraw
		}
	}
	return p, cost, nil
}

// Load merges, resolves and builds the named banner.
func (l *Loader) Load(name string) (*gacha.Banner, token.Token, error) {
	raw, err := l.LoadMerged(name)
	if err != nil {
		return nil, token.Token{}, err
	}
	params, cost, err := Resolve(raw)
	if err != nil {
		return nil, token.Token{}, err
	}
	b, err := gacha.NewBanner(params)
	if err != nil {
		return nil, token.Token{}, err
	}
	return b, cost, nil
}
