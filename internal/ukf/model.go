package ukf

import "gonum.org/v1/gonum/mat"

// Model is the nonlinear system description the filter propagates sigma
// points through. Implementations must be deterministic and side-effect
// free: the filter calls them once per sigma point per update.
type Model interface {
	// PredictState advances a state one discrete step.
	PredictState(x, u mat.Vector) *mat.VecDense

	// PredictMeasurement maps a state to its expected measurement.
	PredictMeasurement(x, u mat.Vector) *mat.VecDense

	StateDim() int
	MeasurementDim() int
	ControlDim() int
}
