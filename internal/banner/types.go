// types.go
package banner

// RawConfig is a banner file as loaded from YAML. Pointer fields distinguish
// "not set" from zero so files can be layered.
type RawConfig struct {
	Version string       `yaml:"version"`
	Name    string       `yaml:"name,omitempty"`
	Draw    DrawConfig   `yaml:"draw"`
	Banner  *FeaturedCfg `yaml:"banner,omitempty"`
	Second  *SecondCfg   `yaml:"second,omitempty"`
	Items   *ItemsCfg    `yaml:"items,omitempty"`
	Tokens  *TokenConfig `yaml:"tokens,omitempty"`
	Notes   string       `yaml:"notes,omitempty"`
}

type DrawConfig struct {
	PBase *float64 `yaml:"p_base"`
	Pity  *int     `yaml:"pity"`
	Soft  *SoftCfg `yaml:"soft,omitempty"`
}

type SoftCfg struct {
	Mode      string   `yaml:"mode"` // "target_ramp" | "per_draw_increment" | "none"
	StartAt   *int     `yaml:"start_at,omitempty"`
	StartPct  *float64 `yaml:"start_pct,omitempty"`
	Target    *float64 `yaml:"target,omitempty"`
	Increment *float64 `yaml:"increment,omitempty"` // for per_draw_increment
	Easing    string   `yaml:"easing,omitempty"`
}

type FeaturedCfg struct {
	FeaturedProb *float64 `yaml:"featured_prob"`
}

type SecondCfg struct {
	Pity         *int     `yaml:"pity"`
	BaseProb     *float64 `yaml:"base_prob"`
	AtPityProb   *float64 `yaml:"at_pity_prob"`
	Gate         *float64 `yaml:"gate"`
	FeaturedProb *float64 `yaml:"featured_prob"`
}

type ItemsCfg struct {
	Premium      string   `yaml:"premium"`
	Fallback     string   `yaml:"fallback"`
	FourFeatured []string `yaml:"four_featured"`
	FourStandard []string `yaml:"four_standard"`
	Three        []string `yaml:"three"`
}

type TokenConfig struct {
	Name       string `yaml:"name"`
	PerDraw    *int   `yaml:"per_draw"`
	PerTenDraw *int   `yaml:"per_ten_draw"`
}
