package services

import "errors"

var (
	// ErrUnauthorized is returned when the registering or deactivating
	// principal is not allowed to perform the operation.
	ErrUnauthorized = errors.New("deployer is not authorized")

	// ErrEstimationFailed is returned when neither live estimation nor the
	// fallback table can produce a gas estimate.
	ErrEstimationFailed = errors.New("gas estimation failed")

	// ErrTooLate is returned by Cancel once a deployment has been broadcast
	// or has already reached a terminal state.
	ErrTooLate = errors.New("deployment can no longer be cancelled")

	// ErrDeploymentNotFound is returned for unknown deployment ids.
	ErrDeploymentNotFound = errors.New("deployment not found")
)
