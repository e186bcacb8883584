package ukf

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/marel-k/fuselab/internal/dynamo"
)

// Config holds the scaled sigma-point parameters.
type Config struct {
	Alpha float64
	Beta  float64
	Kappa float64
}

// DefaultConfig returns the sigma-point spread used by the pendulum rig.
func DefaultConfig() Config {
	return Config{
		Alpha: 0.9,
		Beta:  2.0,
		Kappa: 0.0,
	}
}

// Filter is an unscented Kalman filter over a nonlinear Model.
//
// Update runs one full predict/correct cycle. A numerical breakdown (loss
// of covariance positive definiteness, singular innovation covariance, or a
// non-finite estimate) is reported as an error; the caller decides the
// recovery policy. Filter is not safe for concurrent use.
type Filter struct {
	model  Model
	n, m   int
	lambda float64
	wm, wc []float64

	x *mat.VecDense
	p *mat.SymDense
	q *mat.SymDense
	r *mat.SymDense
}

// New creates a filter for the given model. The filter starts at the zero
// state with identity covariance; call Reset to seed it.
func New(model Model, cfg Config) *Filter {
	n := model.StateDim()
	nf := float64(n)
	lambda := cfg.Alpha*cfg.Alpha*(nf+cfg.Kappa) - nf

	count := 2*n + 1
	wm := make([]float64, count)
	wc := make([]float64, count)
	wm[0] = lambda / (nf + lambda)
	wc[0] = wm[0] + (1 - cfg.Alpha*cfg.Alpha + cfg.Beta)
	for i := 1; i < count; i++ {
		wm[i] = 0.5 / (nf + lambda)
		wc[i] = wm[i]
	}

	f := &Filter{
		model:  model,
		n:      n,
		m:      model.MeasurementDim(),
		lambda: lambda,
		wm:     wm,
		wc:     wc,
		x:      mat.NewVecDense(n, nil),
	}
	f.Reset(mat.NewVecDense(n, nil), 1, 1, 1)
	return f
}

// Reset re-seeds the filter: the estimate becomes a copy of x0 and the
// covariance and noise matrices become scaled identities. All prior filter
// history is discarded. Calling Reset twice with the same arguments leaves
// the filter in the same state.
func (f *Filter) Reset(x0 mat.Vector, pScale, processNoiseScale, measNoiseScale float64) {
	for i := 0; i < f.n; i++ {
		f.x.SetVec(i, x0.AtVec(i))
	}

	f.p = scaledEye(f.n, pScale)
	f.q = scaledEye(f.n, processNoiseScale)
	f.r = scaledEye(f.m, measNoiseScale)
}

// State returns a copy of the current state estimate.
func (f *Filter) State() mat.Vector {
	out := mat.NewVecDense(f.n, nil)
	out.CopyVec(f.x)
	return out
}

// Covariance returns a copy of the current state covariance.
func (f *Filter) Covariance() mat.Symmetric {
	out := mat.NewSymDense(f.n, nil)
	out.CopySym(f.p)
	return out
}

// MeasurementEstimate projects the current state estimate into measurement
// space through the model.
func (f *Filter) MeasurementEstimate(u mat.Vector) mat.Vector {
	return f.model.PredictMeasurement(f.x, u)
}

// Update runs one predict/correct cycle against the measurement z under
// control u. On error the filter's state is left untouched, so the caller
// may reset and continue.
func (f *Filter) Update(z, u mat.Vector) error {
	if z.Len() != f.m {
		return fmt.Errorf("ukf: measurement length %d: %w", z.Len(), dynamo.ErrDimensionMismatch)
	}

	sigmas, err := f.sigmaPoints()
	if err != nil {
		return err
	}

	// Propagate sigma points through the process model and form the
	// predicted mean.
	count := 2*f.n + 1
	xs := make([]*mat.VecDense, count)
	xPred := mat.NewVecDense(f.n, nil)
	for j := 0; j < count; j++ {
		xs[j] = f.model.PredictState(sigmas[j], u)
		xPred.AddScaledVec(xPred, f.wm[j], xs[j])
	}

	// Predicted covariance, seeded with the process noise.
	pPred := mat.NewDense(f.n, f.n, nil)
	addSym(pPred, f.q)
	dx := mat.NewVecDense(f.n, nil)
	for j := 0; j < count; j++ {
		dx.SubVec(xs[j], xPred)
		rankOneUpdate(pPred, f.wc[j], dx, dx)
	}

	// Measurement-space sigma points and predicted measurement.
	zs := make([]*mat.VecDense, count)
	zPred := mat.NewVecDense(f.m, nil)
	for j := 0; j < count; j++ {
		zs[j] = f.model.PredictMeasurement(xs[j], u)
		zPred.AddScaledVec(zPred, f.wm[j], zs[j])
	}

	// Innovation covariance and state/measurement cross covariance.
	pzz := mat.NewDense(f.m, f.m, nil)
	addSym(pzz, f.r)
	pxz := mat.NewDense(f.n, f.m, nil)
	dz := mat.NewVecDense(f.m, nil)
	for j := 0; j < count; j++ {
		dz.SubVec(zs[j], zPred)
		rankOneUpdate(pzz, f.wc[j], dz, dz)
		dx.SubVec(xs[j], xPred)
		rankOneUpdate(pxz, f.wc[j], dx, dz)
	}

	var pzzInv mat.Dense
	if err := pzzInv.Inverse(pzz); err != nil {
		return fmt.Errorf("ukf: %v: %w", err, dynamo.ErrSingularInnovation)
	}

	var gain mat.Dense
	gain.Mul(pxz, &pzzInv)

	// Corrected state: x = xPred + K*(z - zPred).
	innov := mat.NewVecDense(f.m, nil)
	for i := 0; i < f.m; i++ {
		innov.SetVec(i, z.AtVec(i)-zPred.AtVec(i))
	}
	corr := mat.NewVecDense(f.n, nil)
	corr.MulVec(&gain, innov)

	xNew := mat.NewVecDense(f.n, nil)
	xNew.AddVec(xPred, corr)
	if !dynamo.State(xNew.RawVector().Data).IsValid() {
		return fmt.Errorf("ukf: corrected estimate: %w", dynamo.ErrInvalidState)
	}

	// Corrected covariance: P = pPred - K*Pzz*K^T, re-symmetrized to soak
	// up floating-point asymmetry before the next Cholesky.
	var kpzz, kpzzkT mat.Dense
	kpzz.Mul(&gain, pzz)
	kpzzkT.Mul(&kpzz, gain.T())
	pPred.Sub(pPred, &kpzzkT)

	f.x.CopyVec(xNew)
	f.p = symmetrize(pPred)
	return nil
}

// sigmaPoints builds the 2n+1 scaled sigma points around the current
// estimate from the Cholesky factor of (n+lambda)*P.
func (f *Filter) sigmaPoints() ([]*mat.VecDense, error) {
	var scaled mat.SymDense
	scaled.ScaleSym(float64(f.n)+f.lambda, f.p)

	var chol mat.Cholesky
	if ok := chol.Factorize(&scaled); !ok {
		return nil, fmt.Errorf("ukf: sigma-point factorization: %w", dynamo.ErrNotPositiveDefinite)
	}
	var l mat.TriDense
	chol.LTo(&l)

	count := 2*f.n + 1
	sigmas := make([]*mat.VecDense, count)
	sigmas[0] = mat.NewVecDense(f.n, nil)
	sigmas[0].CopyVec(f.x)

	for k := 0; k < f.n; k++ {
		plus := mat.NewVecDense(f.n, nil)
		minus := mat.NewVecDense(f.n, nil)
		for i := 0; i < f.n; i++ {
			plus.SetVec(i, f.x.AtVec(i)+l.At(i, k))
			minus.SetVec(i, f.x.AtVec(i)-l.At(i, k))
		}
		sigmas[k+1] = plus
		sigmas[k+1+f.n] = minus
	}
	return sigmas, nil
}

func scaledEye(n int, scale float64) *mat.SymDense {
	s := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		s.SetSym(i, i, scale)
	}
	return s
}

func addSym(dst *mat.Dense, s mat.Symmetric) {
	n := s.SymmetricDim()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			dst.Set(i, j, dst.At(i, j)+s.At(i, j))
		}
	}
}

// rankOneUpdate accumulates w * a * b^T into dst.
func rankOneUpdate(dst *mat.Dense, w float64, a, b *mat.VecDense) {
	for i := 0; i < a.Len(); i++ {
		for j := 0; j < b.Len(); j++ {
			dst.Set(i, j, dst.At(i, j)+w*a.AtVec(i)*b.AtVec(j))
		}
	}
}

func symmetrize(a *mat.Dense) *mat.SymDense {
	n, _ := a.Dims()
	s := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			s.SetSym(i, j, 0.5*(a.At(i, j)+a.At(j, i)))
		}
	}
	return s
}
