package featuregate

import "context"

// Store is the persistence boundary for feature flags. Slug uniqueness
// is enforced by implementations.
type Store interface {
	// GetFlag returns the flag with the given slug or ErrFlagNotFound.
	GetFlag(ctx context.Context, slug string) (*Flag, error)

	// ListFlags returns all flags.
	ListFlags(ctx context.Context) ([]*Flag, error)

	// CreateFlag persists a new flag. Returns ErrFlagExists on slug collision.
	CreateFlag(ctx context.Context, flag *Flag) error

	// UpdateFlag replaces an existing flag. Returns ErrFlagNotFound if absent.
	UpdateFlag(ctx context.Context, flag *Flag) error

	// DeleteFlag removes a flag. Returns ErrFlagNotFound if absent.
	DeleteFlag(ctx context.Context, slug string) error
}

// SegmentChecker resolves segment membership during flag evaluation.
// It is satisfied by segment.Engine, keeping the gate decoupled from
// the segment engine's internals.
type SegmentChecker interface {
	// IsMember reports whether the user belongs to the named segment.
	IsMember(ctx context.Context, segmentSlug string, userID string) (bool, error)

	// MembersCount returns the segment's cached member count.
	MembersCount(ctx context.Context, segmentSlug string) (int64, error)
}

// PopulationCounter reports the total size of the user population.
// Used only for the statistical active-user estimate of flags without
// segment restrictions.
type PopulationCounter func(ctx context.Context) (int64, error)

// FlagCache is an optional read-through cache in front of the store.
// Passed in explicitly so tests can substitute an in-memory fake and
// no process-wide cache state is involved.
type FlagCache interface {
	Get(ctx context.Context, slug string) (*Flag, bool)
	Set(ctx context.Context, slug string, flag *Flag)
	Remove(ctx context.Context, slug string)
}
