// Package dynamo provides the core vector types shared by the truth
// simulator, the estimator, and the fusion loop:
//
//   - [State]: (theta, omega) state vector
//   - [Measurement]: (x, y) sensor-space vector
//
// The estimator works on gonum matrices internally; these slice types
// carry the simulation side and convert at the estimator boundary, where
// the control vector also lives (it has no slice form here because the
// passive pendulum never populates one).
package dynamo
