package segment

import "errors"

// Predefined errors for the segment package.
var (
	// ErrSegmentNotFound indicates that the requested segment does not exist.
	// Engine read paths swallow it (unknown slug reports empty/zero);
	// management paths surface it.
	ErrSegmentNotFound = errors.New("user segment not found")

	// ErrSegmentExists indicates an attempt to create a segment with a taken slug.
	ErrSegmentExists = errors.New("user segment already exists")

	// ErrInvalidSegment indicates that the segment configuration failed validation.
	ErrInvalidSegment = errors.New("invalid user segment")

	// ErrInvalidUserID indicates a membership operation with an unparseable user ID.
	ErrInvalidUserID = errors.New("invalid user id")

	// ErrStoreNotInitialized indicates the engine was constructed without a usable store.
	ErrStoreNotInitialized = errors.New("segment store not initialized")

	// ErrUserSourceNotInitialized indicates a dynamic segment operation
	// was attempted without a user source to query.
	ErrUserSourceNotInitialized = errors.New("user source not initialized")
)
