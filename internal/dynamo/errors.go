package dynamo

import "errors"

// Domain errors for estimation operations.
var (
	// ErrInvalidState indicates a state vector with invalid dimensions or values.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrNotPositiveDefinite indicates a covariance matrix that lost positive
	// definiteness, so no Cholesky factor exists.
	ErrNotPositiveDefinite = errors.New("dynamo: covariance not positive definite")

	// ErrSingularInnovation indicates the innovation covariance could not be
	// inverted during the filter update.
	ErrSingularInnovation = errors.New("dynamo: innovation covariance singular")

	// ErrDimensionMismatch indicates mismatched state/measurement dimensions.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch")
)
