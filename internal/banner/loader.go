package banner

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// DefaultName is the base layer every banner is merged onto.
const DefaultName = "default"

// Paths helper for default/banner files.
type Paths struct {
	BaseDir string // base directory, e.g., /opt/app/configs
}

func (p Paths) DefaultPath() string {
	return p.BannerPath(DefaultName)
}

func (p Paths) BannerPath(name string) string {
	return filepath.Join(p.BaseDir, "banners", name+".yaml")
}

// Loader reads YAML configs and merges default -> banner.
type Loader struct {
	paths Paths

	mu    sync.RWMutex
	cache map[string]RawConfig // key: banner name
}

// NewLoader creates a config loader with the given base directory.
func NewLoader(baseDir string) *Loader {
	return &Loader{
		paths: Paths{BaseDir: baseDir},
		cache: make(map[string]RawConfig),
	}
}

func (l *Loader) Paths() Paths { return l.paths }

// LoadMerged loads and merges default -> banner. The default file must exist;
// the banner file is optional.
func (l *Loader) LoadMerged(name string) (RawConfig, error) {
	l.mu.RLock()
	if cfg, ok := l.cache[name]; ok {
		l.mu.RUnlock()
		return cfg, nil
	}
	l.mu.RUnlock()

	defCfg, err := readYAML(l.paths.DefaultPath(), true)
	if err != nil {
		return RawConfig{}, fmt.Errorf("read default: %w", err)
	}
	merged := defCfg
	if name != "" && name != DefaultName {
		bannerCfg, err := readYAML(l.paths.BannerPath(name), false)
		if err != nil {
			return RawConfig{}, fmt.Errorf("read banner %s: %w", name, err)
		}
		merged = mergeRaw(defCfg, bannerCfg)
	}
	if merged.Name == "" {
		merged.Name = name
	}

	l.mu.Lock()
	l.cache[name] = merged
	l.mu.Unlock()
	return merged, nil
}

// Invalidate clears loader's cache. Call after hot-reload detects changes.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache = make(map[string]RawConfig)
}

// readYAML loads a YAML file into RawConfig. A missing optional file yields
// a zero config.
func readYAML(path string, required bool) (RawConfig, error) {
	var cfg RawConfig
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return RawConfig{}, nil
		}
		return RawConfig{}, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return RawConfig{}, err
	}
	return cfg, nil
}

// mergeRaw performs a deep merge: 'b' overrides 'a' where set.
// Slices in 'b' replace those in 'a'.
func mergeRaw(a, b RawConfig) RawConfig {
	out := a

	if b.Version != "" {
		out.Version = b.Version
	}
	if b.Name != "" {
		out.Name = b.Name
	}
	if b.Notes != "" {
		out.Notes = b.Notes
	}

	// draw
	if b.Draw.PBase != nil {
		out.Draw.PBase = b.Draw.PBase
	}
	if b.Draw.Pity != nil {
		out.Draw.Pity = b.Draw.Pity
	}
	switch {
	case b.Draw.Soft == nil:
	case out.Draw.Soft == nil:
		c := *b.Draw.Soft
		out.Draw.Soft = &c
	default:
		c := *out.Draw.Soft
		if b.Draw.Soft.Mode != "" {
			c.Mode = b.Draw.Soft.Mode
		}
		if b.Draw.Soft.StartAt != nil {
			c.StartAt = b.Draw.Soft.StartAt
		}
		if b.Draw.Soft.StartPct != nil {
			c.StartPct = b.Draw.Soft.StartPct
		}
		if b.Draw.Soft.Target != nil {
			c.Target = b.Draw.Soft.Target
		}
		if b.Draw.Soft.Increment != nil {
			c.Increment = b.Draw.Soft.Increment
		}
		if b.Draw.Soft.Easing != "" {
			c.Easing = b.Draw.Soft.Easing
		}
		out.Draw.Soft = &c
	}

	// banner
	switch {
	case b.Banner == nil:
	case out.Banner == nil || b.Banner.FeaturedProb != nil:
		c := *b.Banner
		out.Banner = &c
	}

	// second tier
	switch {
	case b.Second == nil:
	case out.Second == nil:
		c := *b.Second
		out.Second = &c
	default:
		c := *out.Second
		if b.Second.Pity != nil {
			c.Pity = b.Second.Pity
		}
		if b.Second.BaseProb != nil {
			c.BaseProb = b.Second.BaseProb
		}
		if b.Second.AtPityProb != nil {
			c.AtPityProb = b.Second.AtPityProb
		}
		if b.Second.Gate != nil {
			c.Gate = b.Second.Gate
		}
		if b.Second.FeaturedProb != nil {
			c.FeaturedProb = b.Second.FeaturedProb
		}
		out.Second = &c
	}

	// items
	switch {
	case b.Items == nil:
	case out.Items == nil:
		c := *b.Items
		out.Items = &c
	default:
		c := *out.Items
		if b.Items.Premium != "" {
			c.Premium = b.Items.Premium
		}
		if b.Items.Fallback != "" {
			c.Fallback = b.Items.Fallback
		}
		if len(b.Items.FourFeatured) > 0 {
			c.FourFeatured = append([]string(nil), b.Items.FourFeatured...)
		}
		if len(b.Items.FourStandard) > 0 {
			c.FourStandard = append([]string(nil), b.Items.FourStandard...)
		}
		if len(b.Items.Three) > 0 {
			c.Three = append([]string(nil), b.Items.Three...)
		}
		out.Items = &c
	}

	// tokens
	switch {
	case b.Tokens == nil:
	case out.Tokens == nil:
		c := *b.Tokens
		out.Tokens = &c
	default:
		c := *out.Tokens
		if b.Tokens.Name != "" {
			c.Name = b.Tokens.Name
		}
		if b.Tokens.PerDraw != nil {
			c.PerDraw = b.Tokens.PerDraw
		}
		if b.Tokens.PerTenDraw != nil {
			c.PerTenDraw = b.Tokens.PerTenDraw
		}
		out.Tokens = &c
	}

	return out
}
