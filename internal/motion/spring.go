package motion

import "math"

const (
	RestDisplacement = 0.001
	RestSpeed        = 0.001

	// maxStep keeps stiff springs stable when frames are slow.
	maxStep = 1.0 / 240
)

type SpringConfig struct {
	Stiffness float64
	Damping   float64
	Mass      float64
}

// DampingRatio is 1 for critical damping and below 1 when the spring bounces.
func (c SpringConfig) DampingRatio() float64 {
	return c.Damping / (2 * math.Sqrt(c.Stiffness*c.Mass))
}

// FromBouncinessAndSpeed converts the bounciness/speed pair used by common
// mobile animation engines into stiffness and damping, following the Origami
// mapping those engines share.
func FromBouncinessAndSpeed(bounciness, speed float64) SpringConfig {
	b := normalize(bounciness/1.7, 0, 20)
	b = project(b, 0, 0.8)
	s := normalize(speed/1.7, 0, 20)

	tension := project(s, 0.5, 200)
	friction := quadOut(b, noBounceFriction(tension), 0.01)

	return SpringConfig{
		Stiffness: (tension-30)*3.62 + 194,
		Damping:   (friction-8)*3 + 25,
		Mass:      1,
	}
}

func normalize(v, start, end float64) float64 { return (v - start) / (end - start) }

func project(n, start, end float64) float64 { return start + n*(end-start) }

func quadOut(t, start, end float64) float64 {
	t = 2*t - t*t
	return t*end + (1-t)*start
}

func noBounceFriction(tension float64) float64 {
	switch {
	case tension <= 18:
		return 0.0007*math.Pow(tension, 3) - 0.031*math.Pow(tension, 2) + 0.64*tension + 1.28
	case tension <= 44:
		return 0.000044*math.Pow(tension, 3) - 0.006*math.Pow(tension, 2) + 0.36*tension + 2
	default:
		return 0.00000045*math.Pow(tension, 3) - 0.000332*math.Pow(tension, 2) + 0.1078*tension + 5.84
	}
}

// Spring is a damped oscillator pulled toward Target. State is {position, velocity}.
type Spring struct {
	Config SpringConfig
	Target float64

	x     State
	t     float64
	integ Integrator
}

func NewSpring(cfg SpringConfig, at float64) *Spring {
	return &Spring{
		Config: cfg,
		Target: at,
		x:      State{at, 0},
		integ:  NewRK4(),
	}
}

func (s *Spring) Derive(x State, t float64) State {
	mass := s.Config.Mass
	if mass <= 0 {
		mass = 1
	}
	force := -s.Config.Stiffness*(x[0]-s.Target) - s.Config.Damping*x[1]
	return State{x[1], force / mass}
}

func (s *Spring) Position() float64 { return s.x[0] }
func (s *Spring) Velocity() float64 { return s.x[1] }

func (s *Spring) AtRest() bool {
	return math.Abs(s.x[0]-s.Target) < RestDisplacement && math.Abs(s.x[1]) < RestSpeed
}

// Step advances the spring by dt seconds and snaps it to the target once it
// is within the rest thresholds.
func (s *Spring) Step(dt float64) float64 {
	for dt > 0 && !s.AtRest() {
		h := math.Min(dt, maxStep)
		next := s.integ.Step(s, s.x, s.t, h)
		if !next.IsValid() {
			s.x = State{s.Target, 0}
			break
		}
		s.x = next
		s.t += h
		dt -= h
	}
	if s.AtRest() {
		s.x[0], s.x[1] = s.Target, 0
	}
	return s.x[0]
}
