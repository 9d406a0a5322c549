package segment

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/gatekit/pkg/logger"
)

// Engine computes and maintains segment membership. All operations run
// synchronously to completion; concurrency control lives in the Store.
type Engine struct {
	store Store
	users UserSource
	log   *slog.Logger
	now   func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used by the engine and the refresher.
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine creates an Engine over a segment store and a user source.
func NewEngine(store Store, users UserSource, opts ...Option) *Engine {
	e := &Engine{
		store: store,
		users: users,
		log:   slog.Default(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RecalculateCount returns the segment's user count. For static
// segments, or dynamic ones without conditions, it is the cached count
// and nothing is written. For computed segments the count is queried
// from the user source and persisted together with the calculation
// timestamp; the name carries the side effect on purpose. An unknown
// slug counts as zero, not as an error.
func (e *Engine) RecalculateCount(ctx context.Context, slug string) (int64, error) {
	seg, err := e.getSegment(ctx, slug)
	if err != nil || seg == nil {
		return 0, err
	}

	if !seg.computed() {
		return seg.UserCount, nil
	}
	if e.users == nil {
		return 0, ErrUserSourceNotInitialized
	}

	count, err := e.users.CountUsers(ctx, seg.Conditions)
	if err != nil {
		return 0, err
	}

	if err := e.store.UpdateStats(ctx, slug, count, e.now()); err != nil {
		return 0, err
	}
	return count, nil
}

// RefreshMemberships recomputes a dynamic segment's membership and
// replaces the stored set with exactly the current matches: users that
// stopped matching are removed, new matches are added, survivors keep
// their joined-at timestamps. A no-op for static segments, segments
// without conditions, and unknown slugs. Idempotent when the
// underlying user data has not changed.
func (e *Engine) RefreshMemberships(ctx context.Context, slug string) error {
	seg, err := e.getSegment(ctx, slug)
	if err != nil || seg == nil {
		return err
	}

	if !seg.computed() {
		return nil
	}
	if e.users == nil {
		return ErrUserSourceNotInitialized
	}

	ids, err := e.users.ListUserIDs(ctx, seg.Conditions)
	if err != nil {
		return err
	}

	if err := e.store.ReplaceMembers(ctx, slug, ids, e.now()); err != nil {
		return err
	}

	e.log.InfoContext(ctx, "segment memberships refreshed",
		logger.Segment(slug), logger.UserCount(int64(len(ids))))
	return nil
}

// AddUser adds a user to the segment's manual membership. Idempotent:
// adding an existing member changes nothing. Calling it on a dynamic
// segment is valid but the next refresh overwrites the result.
func (e *Engine) AddUser(ctx context.Context, slug string, userID uuid.UUID) error {
	if e.store == nil {
		return ErrStoreNotInitialized
	}
	_, err := e.store.AddMember(ctx, slug, userID, e.now())
	return err
}

// RemoveUser removes a user from the segment's membership. Idempotent:
// removing a non-member changes nothing.
func (e *Engine) RemoveUser(ctx context.Context, slug string, userID uuid.UUID) error {
	if e.store == nil {
		return ErrStoreNotInitialized
	}
	_, err := e.store.RemoveMember(ctx, slug, userID)
	return err
}

// GrowthRate compares the previously cached user count against a fresh
// recalculation and returns the percentage change. Edge policy: a
// never-calculated segment grows by 0, zero to positive is 100, zero
// to zero is 0. The recalculation persists, as with RecalculateCount.
func (e *Engine) GrowthRate(ctx context.Context, slug string) (float64, error) {
	seg, err := e.getSegment(ctx, slug)
	if err != nil || seg == nil {
		return 0, err
	}

	previous := seg.UserCount
	wasCalculated := seg.LastCalculatedAt != nil

	current, err := e.RecalculateCount(ctx, slug)
	if err != nil {
		return 0, err
	}

	switch {
	case !wasCalculated:
		return 0, nil
	case previous == 0 && current == 0:
		return 0, nil
	case previous == 0:
		return 100, nil
	default:
		return float64(current-previous) / float64(previous) * 100, nil
	}
}

// IsMember reports whether the user belongs to the segment. Inactive
// and unknown segments report no members. The string userID form
// satisfies featuregate.SegmentChecker.
func (e *Engine) IsMember(ctx context.Context, slug string, userID string) (bool, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return false, errors.Join(ErrInvalidUserID, err)
	}

	seg, err := e.getSegment(ctx, slug)
	if err != nil || seg == nil {
		return false, err
	}
	if !seg.Active {
		return false, nil
	}

	return e.store.IsMember(ctx, slug, id)
}

// MembersCount returns the segment's cached member count. Inactive and
// unknown segments count zero.
func (e *Engine) MembersCount(ctx context.Context, slug string) (int64, error) {
	seg, err := e.getSegment(ctx, slug)
	if err != nil || seg == nil {
		return 0, err
	}
	if !seg.Active {
		return 0, nil
	}
	return seg.UserCount, nil
}

// getSegment resolves a slug, mapping ErrSegmentNotFound to a nil
// segment: unknown slugs are empty results, not errors.
func (e *Engine) getSegment(ctx context.Context, slug string) (*Segment, error) {
	if e.store == nil {
		return nil, ErrStoreNotInitialized
	}

	seg, err := e.store.GetSegment(ctx, slug)
	if err != nil {
		if errors.Is(err, ErrSegmentNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return seg, nil
}
