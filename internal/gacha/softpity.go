package gacha

import "errors"

// Mode selects how the probability ramps between StartAt and hard pity.
type Mode string

const (
	// ModeIncrement adds Increment per pull from StartAt on:
	// p = pBase + Increment * (count - StartAt + 1).
	ModeIncrement Mode = "per_draw_increment"
	// ModeTargetRamp eases from pBase at StartAt to TargetProb at Pity-1.
	ModeTargetRamp Mode = "target_ramp"
	ModeNone       Mode = "none"
)

// Easing specifies the ramp curve for ModeTargetRamp.
type Easing string

const (
	EaseLinear     Easing = "linear"
	EaseOutQuad    Easing = "easeOutQuad"
	EaseInOutCubic Easing = "easeInOutCubic"
)

var ErrSoftPityConfig = errors.New("invalid soft pity config")

// SoftPity decides top-tier hits from the number of pulls since the last one.
// Example: Pity=60, StartAt=43, Increment=0.06 -> pull #43 uses pBase+6%,
// #58 uses pBase+96%, #59 is a guaranteed hit.
type SoftPity struct {
	Pity       int     // hard pity threshold; count Pity-1 always hits
	Mode       Mode    // ramp kind
	StartAt    int     // first count using the ramp
	Increment  float64 // per-pull increase for ModeIncrement
	TargetProb float64 // probability at count Pity-1 for ModeTargetRamp
	Easing     Easing
}

// normalize validates and fills defaults; returns error if invalid.
func (c *SoftPity) normalize() error {
	if c.Pity <= 1 {
		return ErrSoftPityConfig
	}
	if c.Mode == "" {
		c.Mode = ModeNone
	}
	if c.StartAt < 0 {
		c.StartAt = 0
	}
	switch c.Mode {
	case ModeNone:
		return nil
	case ModeIncrement:
		if c.Increment <= 0 || c.Increment >= 1 {
			return ErrSoftPityConfig
		}
	case ModeTargetRamp:
		if c.TargetProb <= 0 || c.TargetProb >= 1 {
			return ErrSoftPityConfig
		}
		if c.Easing == "" {
			c.Easing = EaseLinear
		}
	default:
		return ErrSoftPityConfig
	}
	// Ramp ends at (Pity-1). StartAt must be < (Pity-1) to have room to ramp.
	if c.StartAt >= c.Pity-1 {
		return ErrSoftPityConfig
	}
	return nil
}

// Prob computes the probability the pull at `count` should use:
// - count+1 >= Pity: 1 (hard pity).
// - ramp configured and count >= StartAt: ramped probability.
// - else: pBase.
func (c SoftPity) Prob(count int, pBase float64) float64 {
	if count+1 >= c.Pity {
		return 1.0
	}
	if c.Mode == ModeNone || c.Mode == "" || count < c.StartAt {
		return pBase
	}
	var p float64
	switch c.Mode {
	case ModeIncrement:
		p = pBase + c.Increment*float64(count-c.StartAt+1)
	case ModeTargetRamp:
		length := float64(c.Pity - 1 - c.StartAt)
		if length <= 0 {
			return pBase
		}
		t := float64(count-c.StartAt) / length
		if t > 1 {
			t = 1
		}
		p = pBase + (c.TargetProb-pBase)*ease(c.Easing, t)
	default:
		return pBase
	}
	if p < 0 {
		p = 0
	}
	if p > 0.999999999999 { // keep < 1 to avoid pre-hard-pity guarantee
		p = 0.999999999999
	}
	return p
}

func ease(e Easing, t float64) float64 {
	switch e {
	case EaseOutQuad:
		return 1 - (1-t)*(1-t)
	case EaseInOutCubic:
		if t < 0.5 {
			return 4 * t * t * t
		}
		return 1 - (-2*t+2)*(-2*t+2)*(-2*t+2)/2
	}
	return t
}
