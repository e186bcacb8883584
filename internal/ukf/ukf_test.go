package ukf

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/marel-k/fuselab/internal/dynamo"
	"github.com/marel-k/fuselab/internal/physics"
)

func TestResetIdempotent(t *testing.T) {
	f := New(physics.NewDampedPendulum(), DefaultConfig())

	x0 := mat.NewVecDense(2, []float64{0.7, -0.1})
	f.Reset(x0, 2.0, 0.01, 0.3)
	first := f.State()
	firstCov := f.Covariance()

	f.Reset(x0, 2.0, 0.01, 0.3)
	assert.True(t, mat.EqualApprox(first, f.State(), 1e-15))
	assert.True(t, mat.EqualApprox(firstCov, f.Covariance(), 1e-15))
}

func TestResetDiscardsHistory(t *testing.T) {
	p := physics.NewDampedPendulum()
	f := New(p, DefaultConfig())
	f.Reset(mat.NewVecDense(2, []float64{0.5, 0}), 1, 0.001, 0.1)

	u := mat.NewVecDense(1, nil)
	z := p.PredictMeasurement(mat.NewVecDense(2, []float64{0.6, 0}), u)
	require.NoError(t, f.Update(z, u))

	f.Reset(mat.NewVecDense(2, nil), 1, 0.001, 0.1)
	assert.True(t, mat.EqualApprox(mat.NewVecDense(2, nil), f.State(), 1e-15))
	assert.True(t, mat.EqualApprox(scaledEye(2, 1), f.Covariance(), 1e-15))
}

func TestStateIsACopy(t *testing.T) {
	f := New(physics.NewDampedPendulum(), DefaultConfig())
	f.Reset(mat.NewVecDense(2, []float64{1, 2}), 1, 1, 1)

	got := f.State().(*mat.VecDense)
	got.SetVec(0, 42)

	assert.Equal(t, 1.0, f.State().AtVec(0))
}

func TestUpdateRejectsBadMeasurementLength(t *testing.T) {
	f := New(physics.NewDampedPendulum(), DefaultConfig())

	err := f.Update(mat.NewVecDense(3, nil), mat.NewVecDense(1, nil))
	assert.ErrorIs(t, err, dynamo.ErrDimensionMismatch)
}

func TestUpdateFailsOnNonPositiveDefiniteCovariance(t *testing.T) {
	f := New(physics.NewDampedPendulum(), DefaultConfig())

	// A negative covariance scale has no Cholesky factor, so the sigma-point
	// construction must report a breakdown instead of producing garbage.
	f.Reset(mat.NewVecDense(2, nil), -1.0, 0.001, 0.1)

	err := f.Update(mat.NewVecDense(2, nil), mat.NewVecDense(1, nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, dynamo.ErrNotPositiveDefinite)

	// Failure leaves the estimate untouched.
	assert.True(t, mat.EqualApprox(mat.NewVecDense(2, nil), f.State(), 1e-15))
}

func TestUpdateFailsOnNonFiniteMeasurement(t *testing.T) {
	f := New(physics.NewDampedPendulum(), DefaultConfig())
	f.Reset(mat.NewVecDense(2, []float64{0.5, 0}), 1, 0.001, 0.1)
	before := f.State()

	z := mat.NewVecDense(2, []float64{math.NaN(), 0})
	err := f.Update(z, mat.NewVecDense(1, nil))

	require.Error(t, err)
	assert.ErrorIs(t, err, dynamo.ErrInvalidState)
	assert.True(t, mat.EqualApprox(before, f.State(), 1e-15))
}

func TestConvergesFromWrongInitialAngle(t *testing.T) {
	p := physics.NewDampedPendulum()
	f := New(p, DefaultConfig())

	// Truth starts at pi/2; the filter is seeded deliberately wrong.
	f.Reset(mat.NewVecDense(2, []float64{-1.0, 0}), 1.0, 0.001, 0.1)

	u := mat.NewVecDense(1, nil)
	x := dynamo.State{math.Pi / 2, 0}
	for i := 0; i < 150; i++ {
		x = p.Step(x)
		y := p.Observe(x)
		z := mat.NewVecDense(2, []float64{y[0], y[1]})
		require.NoErrorf(t, f.Update(z, u), "tick %d", i)
	}

	est := f.State()
	assert.InDelta(t, x[0], est.AtVec(0), 0.15, "theta estimate")
	assert.InDelta(t, x[1], est.AtVec(1), 0.25, "omega estimate")
}

func TestMeasurementEstimateOnCircle(t *testing.T) {
	p := physics.NewDampedPendulum()
	f := New(p, DefaultConfig())
	f.Reset(mat.NewVecDense(2, []float64{0.8, 0}), 1, 0.001, 0.1)

	y := f.MeasurementEstimate(mat.NewVecDense(1, nil))
	r2 := y.AtVec(0)*y.AtVec(0) + y.AtVec(1)*y.AtVec(1)
	assert.InDelta(t, p.Length*p.Length, r2, 1e-9)
}
