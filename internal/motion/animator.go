package motion

import (
	"math"
	"time"
)

const (
	DefaultDivisor  = 500.0
	DefaultMinScale = 1.0
	DefaultMaxScale = 3.0
	NeutralScale    = 1.0
)

var (
	Grow   = FromBouncinessAndSpeed(81, 2)
	Settle = FromBouncinessAndSpeed(1, 2)
)

type Config struct {
	Divisor  float64
	MinScale float64
	MaxScale float64
	Grow     SpringConfig
	Settle   SpringConfig
}

func DefaultConfig() Config {
	return Config{
		Divisor:  DefaultDivisor,
		MinScale: DefaultMinScale,
		MaxScale: DefaultMaxScale,
		Grow:     Grow,
		Settle:   Settle,
	}
}

// TargetScale maps a loudness sample to an unclamped scale factor.
func TargetScale(sample, divisor float64) float64 {
	if divisor == 0 {
		return NeutralScale
	}
	return 1 + sample/divisor
}

// Clamp bounds a scale to [min, max]. A max below min disables the upper bound.
func Clamp(scale, min, max float64) float64 {
	scale = math.Max(scale, min)
	if max >= min {
		scale = math.Min(scale, max)
	}
	return scale
}

type Animator struct {
	cfg       Config
	spring    *Spring
	recording bool
}

func NewAnimator(cfg Config) *Animator {
	return &Animator{
		cfg:    cfg,
		spring: NewSpring(cfg.Settle, NeutralScale),
	}
}

// Observe retargets the spring. While recording the target follows the
// sample; otherwise it returns to the neutral scale.
func (a *Animator) Observe(sample float64, recording bool) {
	a.recording = recording
	if !recording {
		a.spring.Config = a.cfg.Settle
		a.spring.Target = NeutralScale
		return
	}
	a.spring.Config = a.cfg.Grow
	a.spring.Target = a.Target(sample)
}

// Target is the clamped scale a sample would drive the spring to.
func (a *Animator) Target(sample float64) float64 {
	return Clamp(TargetScale(sample, a.cfg.Divisor), a.cfg.MinScale, a.cfg.MaxScale)
}

func (a *Animator) Advance(d time.Duration) float64 {
	return a.spring.Step(d.Seconds())
}

func (a *Animator) Scale() float64 { return a.spring.Position() }
func (a *Animator) Goal() float64 { return a.spring.Target }
func (a *Animator) Recording() bool { return a.recording }
func (a *Animator) Settled() bool { return a.spring.AtRest() }
