package segment

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/gatekit/pkg/condition"
)

// Store is the persistence boundary for segments and their membership
// rows. Membership mutations are serialized per segment by
// implementations (mutex in memory, row locks in PostgreSQL) so the
// cached user count stays consistent under concurrent callers, and
// ReplaceMembers is atomic: readers never observe a partially synced
// membership set.
type Store interface {
	// GetSegment returns the segment with the given slug or ErrSegmentNotFound.
	GetSegment(ctx context.Context, slug string) (*Segment, error)

	// ListSegments returns all segments.
	ListSegments(ctx context.Context) ([]*Segment, error)

	// CreateSegment persists a new segment. Returns ErrSegmentExists on slug collision.
	CreateSegment(ctx context.Context, seg *Segment) error

	// UpdateSegment replaces an existing segment's configuration,
	// leaving membership rows and cached stats untouched.
	UpdateSegment(ctx context.Context, seg *Segment) error

	// DeleteSegment removes a segment and its membership rows.
	DeleteSegment(ctx context.Context, slug string) error

	// UpdateStats persists a freshly calculated user count and timestamp.
	UpdateStats(ctx context.Context, slug string, userCount int64, calculatedAt time.Time) error

	// IsMember reports whether the user has a membership row in the segment.
	IsMember(ctx context.Context, slug string, userID uuid.UUID) (bool, error)

	// ListMemberIDs returns the IDs of all current members.
	ListMemberIDs(ctx context.Context, slug string) ([]uuid.UUID, error)

	// AddMember inserts a membership row unless one exists, adjusting
	// the cached count. Reports whether a row was inserted.
	AddMember(ctx context.Context, slug string, userID uuid.UUID, joinedAt time.Time) (bool, error)

	// RemoveMember deletes a membership row if present, adjusting the
	// cached count. Reports whether a row was deleted.
	RemoveMember(ctx context.Context, slug string, userID uuid.UUID) (bool, error)

	// ReplaceMembers synchronizes membership to exactly userIDs:
	// missing rows are inserted with joinedAt = calculatedAt, rows for
	// absent users are deleted, surviving rows keep their original
	// joinedAt. Cached count and LastCalculatedAt update in the same
	// atomic operation.
	ReplaceMembers(ctx context.Context, slug string, userIDs []uuid.UUID, calculatedAt time.Time) error
}

// UserSource is the boundary to the external user-record store. It
// answers predicate-filtered counts and ID listings; the conditions
// fold left-to-right per their Logic tags (see condition.MatchFold).
type UserSource interface {
	CountUsers(ctx context.Context, conds []condition.Condition) (int64, error)
	ListUserIDs(ctx context.Context, conds []condition.Condition) ([]uuid.UUID, error)
}
