package featuregate

import "errors"

// Predefined errors for the featuregate package.
var (
	// ErrFlagNotFound indicates that the requested feature flag does not exist.
	// Evaluation paths swallow it (an unknown slug is simply inactive);
	// management paths surface it.
	ErrFlagNotFound = errors.New("feature flag not found")

	// ErrFlagExists indicates an attempt to create a flag with a slug that is already taken.
	ErrFlagExists = errors.New("feature flag already exists")

	// ErrInvalidFlag indicates that the flag configuration failed validation.
	ErrInvalidFlag = errors.New("invalid feature flag")

	// ErrStoreNotInitialized indicates the gate was constructed without a usable store.
	ErrStoreNotInitialized = errors.New("feature flag store not initialized")
)
