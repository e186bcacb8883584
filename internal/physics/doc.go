// Package physics provides the damped pendulum process and observation
// models shared by the truth simulator and the estimator.
//
// [DampedPendulum] implements [ukf.Model], so the filter stays decoupled
// from this specific system: substituting another second-order nonlinear
// system only requires another implementation of that interface.
package physics
