package truth

import (
	"math"
	"math/rand"

	"github.com/marel-k/fuselab/internal/dynamo"
)

// Simulator owns the ground-truth state and synthesizes noisy measurements
// from it. It carries its own inline copy of the pendulum physics rather
// than calling through the estimator's model: the "real" plant and the
// filter's internal model are separate by construction, even though they
// currently agree.
type Simulator struct {
	Gravity  float64
	Length   float64
	Damping  float64
	Dt       float64
	NoiseAmp float64

	state dynamo.State
	rng   *rand.Rand
}

// New creates a simulator starting at the given initial angle and angular
// velocity. Each instance draws noise from its own seeded source.
func New(theta0, omega0 float64, seed int64) *Simulator {
	return &Simulator{
		Gravity:  9.81,
		Length:   1.0,
		Damping:  0.2,
		Dt:       0.1,
		NoiseAmp: 1.0,
		state:    dynamo.State{theta0, omega0},
		rng:      rand.New(rand.NewSource(seed)),
	}
}

// State returns a copy of the current true state. The estimator never sees
// this; it observes only measurements.
func (s *Simulator) State() dynamo.State {
	return s.state.Clone()
}

// Observe returns the noise-free measurement of the current true state.
func (s *Simulator) Observe() dynamo.Measurement {
	return dynamo.Measurement{
		math.Sin(s.state[0]) * s.Length,
		-math.Cos(s.state[0]) * s.Length,
	}
}

// Tick advances the true state one step and returns the new state together
// with a noisy measurement of it. Noise is additive uniform in
// [-NoiseAmp, +NoiseAmp] on the x component only; y is noise-free.
func (s *Simulator) Tick() (dynamo.State, dynamo.Measurement) {
	theta := s.state[0]
	if theta > math.Pi {
		theta -= math.Pi
	}
	if theta < -math.Pi {
		theta += math.Pi
	}
	omega := s.state[1]

	s.state = dynamo.State{
		theta + omega*s.Dt,
		omega + (-(s.Gravity/s.Length)*math.Sin(theta)-s.Damping*omega)*s.Dt,
	}

	y := s.Observe()
	y[0] += s.noise()

	return s.state.Clone(), y
}

// noise draws one sample uniform in [-NoiseAmp, +NoiseAmp].
func (s *Simulator) noise() float64 {
	return (2*s.rng.Float64() - 1) * s.NoiseAmp
}
