package physics

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/marel-k/fuselab/internal/dynamo"
)

// DampedPendulum is the discrete-time process and observation model of a
// damped pendulum, integrated by explicit Euler at a fixed step Dt.
//
// State is (theta, omega); measurement is the Cartesian bob position
// (sin(theta)*L, -cos(theta)*L).
type DampedPendulum struct {
	Gravity float64
	Length  float64
	Damping float64
	Dt      float64
}

func NewDampedPendulum() *DampedPendulum {
	return &DampedPendulum{
		Gravity: 9.81,
		Length:  1.0,
		Damping: 0.2,
		Dt:      0.1,
	}
}

func (p *DampedPendulum) StateDim() int       { return 2 }
func (p *DampedPendulum) ControlDim() int     { return 1 }
func (p *DampedPendulum) MeasurementDim() int { return 2 }

// WrapAngle applies the single-step angle correction used by the state
// update: one pi is subtracted (or added) when theta leaves (-pi, pi].
// This is deliberately not a full modulo reduction; the filter tuning
// depends on this exact correction, so do not "fix" it to 2*pi.
func WrapAngle(theta float64) float64 {
	if theta > math.Pi {
		return theta - math.Pi
	}
	if theta < -math.Pi {
		return theta + math.Pi
	}
	return theta
}

// Step advances the state one Dt by explicit Euler. The wrapped angle feeds
// both the position and velocity updates; the stored angle is replaced by
// its wrapped value before integration.
func (p *DampedPendulum) Step(x dynamo.State) dynamo.State {
	theta := WrapAngle(x[0])
	omega := x[1]

	return dynamo.State{
		theta + omega*p.Dt,
		omega + (-(p.Gravity/p.Length)*math.Sin(theta)-p.Damping*omega)*p.Dt,
	}
}

// Observe maps a state to the expected bob position. The raw angle is used
// here: the observation path applies no wrapping.
func (p *DampedPendulum) Observe(x dynamo.State) dynamo.Measurement {
	return dynamo.Measurement{
		math.Sin(x[0]) * p.Length,
		-math.Cos(x[0]) * p.Length,
	}
}

// PredictState is the estimator-facing form of Step.
func (p *DampedPendulum) PredictState(x, u mat.Vector) *mat.VecDense {
	next := p.Step(dynamo.State{x.AtVec(0), x.AtVec(1)})
	return mat.NewVecDense(2, []float64{next[0], next[1]})
}

// PredictMeasurement is the estimator-facing form of Observe.
func (p *DampedPendulum) PredictMeasurement(x, u mat.Vector) *mat.VecDense {
	y := p.Observe(dynamo.State{x.AtVec(0), x.AtVec(1)})
	return mat.NewVecDense(2, []float64{y[0], y[1]})
}
