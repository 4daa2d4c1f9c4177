package banner

import (
	"fmt"
	"strings"
)

// ValidateRaw checks semantic constraints of a merged RawConfig.
func ValidateRaw(cfg RawConfig) error {
	var errs []string

	// draw.pity
	if cfg.Draw.Pity == nil {
		errs = append(errs, "draw.pity is required")
	} else if *cfg.Draw.Pity <= 1 {
		errs = append(errs, "draw.pity must be >= 2")
	}
	// draw.p_base
	if cfg.Draw.PBase == nil {
		errs = append(errs, "draw.p_base is required")
	} else if *cfg.Draw.PBase <= 0 || *cfg.Draw.PBase >= 1 {
		errs = append(errs, "draw.p_base must be in (0,1)")
	}

	// soft
	if s := cfg.Draw.Soft; s != nil {
		switch s.Mode {
		case "target_ramp":
			if s.Target == nil {
				errs = append(errs, "draw.soft.target is required for mode=target_ramp")
			} else if *s.Target <= 0 || *s.Target >= 1 {
				errs = append(errs, "draw.soft.target must be in (0,1)")
			}
			if s.StartAt == nil && s.StartPct == nil {
				errs = append(errs, "draw.soft.start_at or start_pct is required for mode=target_ramp")
			}
		case "per_draw_increment":
			if s.StartAt == nil {
				errs = append(errs, "draw.soft.start_at is required for mode=per_draw_increment")
			}
			if s.Increment == nil {
				errs = append(errs, "draw.soft.increment is required for mode=per_draw_increment")
			} else if *s.Increment <= 0 {
				errs = append(errs, "draw.soft.increment must be > 0 for mode=per_draw_increment")
			}
		case "", "none":
			// treat as no soft pity
		default:
			errs = append(errs, "draw.soft.mode must be one of: target_ramp, per_draw_increment, none")
		}
		if cfg.Draw.Pity != nil && s.StartAt != nil {
			if *s.StartAt < 0 || *s.StartAt >= *cfg.Draw.Pity {
				errs = append(errs, "draw.soft.start_at must satisfy 0 <= start_at < pity")
			}
		}
		if s.StartPct != nil && (*s.StartPct < 0 || *s.StartPct > 1) {
			errs = append(errs, "draw.soft.start_pct must be in [0,1]")
		}
	}

	if cfg.Banner != nil && cfg.Banner.FeaturedProb != nil {
		if p := *cfg.Banner.FeaturedProb; p < 0 || p > 1 {
			errs = append(errs, "banner.featured_prob must be in [0,1]")
		}
	}

	// second tier
	if cfg.Second == nil {
		errs = append(errs, "second is required")
	} else {
		if cfg.Second.Pity == nil || *cfg.Second.Pity <= 0 {
			errs = append(errs, "second.pity must be >= 1")
		}
		for name, p := range map[string]*float64{
			"second.base_prob":     cfg.Second.BaseProb,
			"second.at_pity_prob":  cfg.Second.AtPityProb,
			"second.gate":          cfg.Second.Gate,
			"second.featured_prob": cfg.Second.FeaturedProb,
		} {
			if p == nil {
				errs = append(errs, name+" is required")
			} else if *p < 0 || *p > 1 {
				errs = append(errs, name+" must be in [0,1]")
			}
		}
	}

	// items
	if cfg.Items == nil {
		errs = append(errs, "items is required")
	} else {
		if cfg.Items.Premium == "" || cfg.Items.Fallback == "" {
			errs = append(errs, "items.premium and items.fallback are required")
		}
		for name, pool := range map[string][]string{
			"items.four_featured": cfg.Items.FourFeatured,
			"items.four_standard": cfg.Items.FourStandard,
			"items.three":         cfg.Items.Three,
		} {
			if len(pool) == 0 {
				errs = append(errs, name+" must list at least one item")
			}
		}
	}

	// tokens (optional)
	if cfg.Tokens != nil {
		if cfg.Tokens.PerDraw != nil && *cfg.Tokens.PerDraw < 0 {
			errs = append(errs, "tokens.per_draw must be >= 0")
		}
		if cfg.Tokens.PerTenDraw != nil && *cfg.Tokens.PerTenDraw < 0 {
			errs = append(errs, "tokens.per_ten_draw must be >= 0")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
