package fusion

import (
	"context"
	"fmt"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/marel-k/fuselab/internal/dynamo"
	"github.com/marel-k/fuselab/internal/telemetry"
	"github.com/marel-k/fuselab/internal/truth"
)

// Estimator is the contract the loop requires from a state estimator. The
// loop never inspects the estimator's internals: it feeds measurements,
// reads the exposed estimate, and hard-resets on breakdown.
type Estimator interface {
	// Update consumes one measurement under the given control and runs a
	// full predict/correct cycle. A returned error signals numerical
	// breakdown.
	Update(z, u mat.Vector) error

	// Reset re-seeds the estimator's state, covariance, and noise scales,
	// discarding all history.
	Reset(x0 mat.Vector, pScale, processNoiseScale, measNoiseScale float64)

	// State exposes the current estimate read-only.
	State() mat.Vector

	// MeasurementEstimate projects the current estimate into measurement
	// space.
	MeasurementEstimate(u mat.Vector) mat.Vector
}

// Tuning are the scales applied on every estimator reset. Every reset uses
// the same three constants, so recovery always lands in the same known
// initial condition.
type Tuning struct {
	PInit  float64
	RvInit float64
	RnInit float64
}

func DefaultTuning() Tuning {
	return Tuning{
		PInit:  1.0,
		RvInit: 0.001,
		RnInit: 0.1,
	}
}

// Loop is the periodic fusion controller: each tick it advances the truth
// simulator, feeds the estimator the new noisy measurement, recovers from
// estimator breakdown by unconditional reset, and emits one telemetry line.
//
// All state is single-owner and mutated only by the one goroutine driving
// Step or Run; a tick always runs to completion before the next starts.
type Loop struct {
	truth  *truth.Simulator
	est    Estimator
	sink   telemetry.Sink
	tuning Tuning

	u      *mat.VecDense // no actuation on this rig, stays zero
	reinit *mat.VecDense

	ticks  int
	resets int
}

// New builds a loop around an already-seeded truth simulator and estimator.
func New(sim *truth.Simulator, est Estimator, sink telemetry.Sink, tuning Tuning, stateDim, controlDim int) *Loop {
	return &Loop{
		truth:  sim,
		est:    est,
		sink:   sink,
		tuning: tuning,
		u:      mat.NewVecDense(controlDim, nil),
		reinit: mat.NewVecDense(stateDim, nil),
	}
}

// Step executes one tick: truth advance, measurement, estimator update,
// breakdown recovery, telemetry. The order is load-bearing: the estimator
// must observe exactly the measurement produced this tick, and telemetry
// reports the post-update estimate.
func (l *Loop) Step() telemetry.Record {
	xTrue, y := l.truth.Tick()
	z := mat.NewVecDense(len(y), y)

	start := time.Now()
	err := l.est.Update(z, l.u)
	elapsed := time.Since(start)

	if err != nil {
		// Recovery is blunt and synchronous: zero the re-init vector and
		// re-seed from the fixed tuning constants. Never fatal.
		l.reinit.Zero()
		l.est.Reset(l.reinit, l.tuning.PInit, l.tuning.RvInit, l.tuning.RnInit)
		l.resets++
		l.sink.Notice(fmt.Sprintf("estimator reset: %v", err))
	}

	clean := l.truth.Observe()
	rec := telemetry.Record{
		Tick:       l.ticks,
		ComputeMs:  float64(elapsed.Microseconds()) / 1000.0,
		TruthTheta: xTrue[0],
		EstTheta:   l.est.State().AtVec(0),
		NoisyY1:    y[0],
		TruthY1:    clean[0],
		EstY1:      l.est.MeasurementEstimate(l.u).AtVec(0),
	}
	l.sink.Line(rec)

	l.ticks++
	return rec
}

// Run drives Step at the fixed period until ctx is canceled or, when
// maxTicks > 0, that many ticks have run. Scheduling is periodic, not
// isochronous: a slow tick delays the next, it is never preempted.
func (l *Loop) Run(ctx context.Context, period time.Duration, maxTicks int) error {
	if period <= 0 {
		return fmt.Errorf("fusion: period must be positive, got %v", period)
	}

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			l.Step()
			if maxTicks > 0 && l.ticks >= maxTicks {
				return nil
			}
		}
	}
}

// Ticks reports how many ticks have executed.
func (l *Loop) Ticks() int { return l.ticks }

// Resets reports how many estimator resets the loop has performed.
func (l *Loop) Resets() int { return l.resets }

// Truth returns a copy of the current ground-truth state.
func (l *Loop) Truth() dynamo.State { return l.truth.State() }

// Estimate returns the estimator's current state estimate.
func (l *Loop) Estimate() mat.Vector { return l.est.State() }
