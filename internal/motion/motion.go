// Package motion defines animation configuration values and the pure
// resolution step that adjusts an author-requested configuration for
// accessibility preferences and the active performance mode.
package motion

import (
	"fmt"
	"time"
)

// Mode is the coarse performance tier trading animation richness for
// resource consumption.
type Mode string

const (
	ModeHigh     Mode = "high"
	ModeBalanced Mode = "balanced"
	ModeBattery  Mode = "battery"
)

// ParseMode validates a mode string coming from the host.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeHigh, ModeBalanced, ModeBattery:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown performance mode %q", s)
}

// durationScale maps each mode to its duration multiplier.
func (m Mode) durationScale() float64 {
	switch m {
	case ModeBattery:
		return 0.5
	case ModeBalanced:
		return 0.8
	default:
		return 1.0
	}
}

// easeCheap is the easing substituted in battery mode. Linear
// interpolation avoids per-frame curve evaluation cost.
const easeCheap = "linear"

// Config is a named set of motion parameters. An author-requested Config
// becomes a resolved one via Resolve; both share this type.
type Config struct {
	Duration      time.Duration     `json:"duration" yaml:"duration"`
	Stagger       time.Duration     `json:"stagger" yaml:"stagger"`
	Easing        string            `json:"easing" yaml:"easing"`
	HardwareAccel bool              `json:"hardware_accel" yaml:"hardware_accel"`
	ActiveHints   map[string]string `json:"active_hints,omitempty" yaml:"active_hints,omitempty"`
}

// Resolve adjusts a requested configuration for accessibility flags and
// the performance mode. Pure: the result depends only on the arguments.
// Mode scaling applies to whatever duration is passed in, so callers
// resolve the author-requested config, never an already resolved one;
// re-resolving a battery-scaled config scales it again. The
// accessibility rule is idempotent: a zeroed config stays zeroed.
//
// Rule order:
//  1. reduced motion or screen reader forces zero duration and stagger,
//     everything else passes through unchanged;
//  2. otherwise duration and stagger scale by the mode multiplier
//     (battery 0.5, balanced 0.8, high 1.0);
//  3. easing is swapped for a cheaper curve in battery mode only.
func Resolve(base Config, reducedMotion, screenReader bool, mode Mode) Config {
	resolved := base

	if reducedMotion || screenReader {
		resolved.Duration = 0
		resolved.Stagger = 0
		return resolved
	}

	scale := mode.durationScale()
	resolved.Duration = scaleDuration(base.Duration, scale)
	resolved.Stagger = scaleDuration(base.Stagger, scale)
	if mode == ModeBattery {
		resolved.Easing = easeCheap
	}
	return resolved
}

func scaleDuration(d time.Duration, scale float64) time.Duration {
	if scale == 1.0 {
		return d
	}
	return time.Duration(float64(d) * scale)
}

// ShouldAnimate is the coarse gate consulted before any animation work
// starts: accessibility preferences win outright, and a platform without
// visibility observation cannot drive scroll-linked animation at all.
func ShouldAnimate(hasIntersectionObserver, reducedMotion, screenReader bool) bool {
	if reducedMotion || screenReader {
		return false
	}
	return hasIntersectionObserver
}
