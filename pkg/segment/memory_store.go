package segment

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/gatekit/pkg/condition"
	"github.com/dmitrymomot/gatekit/pkg/slug"
)

// MemoryStore is an in-memory implementation of the Store interface.
// A single mutex serializes all membership mutations, which satisfies
// the per-segment serialization the Store contract requires and makes
// ReplaceMembers atomic with respect to readers.
type MemoryStore struct {
	segments map[string]*Segment
	members  map[string]map[uuid.UUID]time.Time // slug -> userID -> joinedAt
	mu       sync.RWMutex
}

// NewMemoryStore creates an in-memory segment store, optionally seeded
// with initial segments. Seed segments without a slug get one derived
// from their name.
func NewMemoryStore(initial ...*Segment) (*MemoryStore, error) {
	store := &MemoryStore{
		segments: make(map[string]*Segment),
		members:  make(map[string]map[uuid.UUID]time.Time),
	}

	for _, seg := range initial {
		if seg == nil {
			continue
		}
		if seg.Slug == "" && seg.Name != "" {
			seg.Slug = slug.Make(seg.Name)
		}
		if err := seg.Validate(); err != nil {
			return nil, err
		}

		cp := seg.clone()
		if cp.CreatedAt.IsZero() {
			cp.CreatedAt = time.Now()
		}
		if cp.UpdatedAt.IsZero() {
			cp.UpdatedAt = cp.CreatedAt
		}
		store.segments[cp.Slug] = cp
		store.members[cp.Slug] = make(map[uuid.UUID]time.Time)
	}

	return store, nil
}

// GetSegment returns a copy of the segment with the given slug.
func (m *MemoryStore) GetSegment(ctx context.Context, segSlug string) (*Segment, error) {
	m.mu.RLock()
	seg, exists := m.segments[segSlug]
	m.mu.RUnlock()

	if !exists {
		return nil, ErrSegmentNotFound
	}
	return seg.clone(), nil
}

// ListSegments returns copies of all segments.
func (m *MemoryStore) ListSegments(ctx context.Context) ([]*Segment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*Segment, 0, len(m.segments))
	for _, seg := range m.segments {
		result = append(result, seg.clone())
	}
	return result, nil
}

// CreateSegment adds a new segment, rejecting slug collisions.
func (m *MemoryStore) CreateSegment(ctx context.Context, seg *Segment) error {
	if err := seg.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.segments[seg.Slug]; exists {
		return ErrSegmentExists
	}

	now := time.Now()
	seg.CreatedAt = now
	seg.UpdatedAt = now

	m.segments[seg.Slug] = seg.clone()
	m.members[seg.Slug] = make(map[uuid.UUID]time.Time)
	return nil
}

// UpdateSegment replaces a segment's configuration, keeping its
// membership rows and cached stats.
func (m *MemoryStore) UpdateSegment(ctx context.Context, seg *Segment) error {
	if err := seg.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	existing, exists := m.segments[seg.Slug]
	if !exists {
		return ErrSegmentNotFound
	}

	cp := seg.clone()
	cp.CreatedAt = existing.CreatedAt
	cp.UpdatedAt = time.Now()
	cp.UserCount = existing.UserCount
	cp.LastCalculatedAt = existing.LastCalculatedAt

	m.segments[seg.Slug] = cp
	return nil
}

// DeleteSegment removes a segment together with its membership rows.
func (m *MemoryStore) DeleteSegment(ctx context.Context, segSlug string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.segments[segSlug]; !exists {
		return ErrSegmentNotFound
	}
	delete(m.segments, segSlug)
	delete(m.members, segSlug)
	return nil
}

// UpdateStats persists a fresh user count and calculation timestamp.
func (m *MemoryStore) UpdateStats(ctx context.Context, segSlug string, userCount int64, calculatedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	seg, exists := m.segments[segSlug]
	if !exists {
		return ErrSegmentNotFound
	}

	seg.UserCount = userCount
	t := calculatedAt
	seg.LastCalculatedAt = &t
	seg.UpdatedAt = calculatedAt
	return nil
}

// IsMember reports whether the user has a membership row.
func (m *MemoryStore) IsMember(ctx context.Context, segSlug string, userID uuid.UUID) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	members, exists := m.members[segSlug]
	if !exists {
		return false, ErrSegmentNotFound
	}
	_, member := members[userID]
	return member, nil
}

// ListMemberIDs returns the IDs of all current members.
func (m *MemoryStore) ListMemberIDs(ctx context.Context, segSlug string) ([]uuid.UUID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	members, exists := m.members[segSlug]
	if !exists {
		return nil, ErrSegmentNotFound
	}

	ids := make([]uuid.UUID, 0, len(members))
	for id := range members {
		ids = append(ids, id)
	}
	return ids, nil
}

// AddMember inserts a membership row unless present, incrementing the
// cached count only on actual insert.
func (m *MemoryStore) AddMember(ctx context.Context, segSlug string, userID uuid.UUID, joinedAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	seg, exists := m.segments[segSlug]
	if !exists {
		return false, ErrSegmentNotFound
	}

	members := m.members[segSlug]
	if _, member := members[userID]; member {
		return false, nil
	}

	members[userID] = joinedAt
	seg.UserCount++
	return true, nil
}

// RemoveMember deletes a membership row if present, decrementing the
// cached count only on actual delete.
func (m *MemoryStore) RemoveMember(ctx context.Context, segSlug string, userID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	seg, exists := m.segments[segSlug]
	if !exists {
		return false, ErrSegmentNotFound
	}

	members := m.members[segSlug]
	if _, member := members[userID]; !member {
		return false, nil
	}

	delete(members, userID)
	if seg.UserCount > 0 {
		seg.UserCount--
	}
	return true, nil
}

// ReplaceMembers synchronizes membership to exactly userIDs under one
// lock acquisition, so readers see either the old or the new set.
func (m *MemoryStore) ReplaceMembers(ctx context.Context, segSlug string, userIDs []uuid.UUID, calculatedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	seg, exists := m.segments[segSlug]
	if !exists {
		return ErrSegmentNotFound
	}

	old := m.members[segSlug]
	next := make(map[uuid.UUID]time.Time, len(userIDs))
	for _, id := range userIDs {
		if joinedAt, ok := old[id]; ok {
			next[id] = joinedAt
		} else {
			next[id] = calculatedAt
		}
	}

	m.members[segSlug] = next
	seg.UserCount = int64(len(next))
	t := calculatedAt
	seg.LastCalculatedAt = &t
	seg.UpdatedAt = calculatedAt
	return nil
}

// MemoryUserSource is an in-memory UserSource evaluating segment
// conditions against a fixed user population via the condition fold.
type MemoryUserSource struct {
	users []User
	mu    sync.RWMutex
}

// NewMemoryUserSource creates a user source over the given population.
func NewMemoryUserSource(users ...User) *MemoryUserSource {
	return &MemoryUserSource{users: users}
}

// SetUsers replaces the whole population. Intended for tests modeling
// user churn between refreshes.
func (s *MemoryUserSource) SetUsers(users ...User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = users
}

// CountUsers counts users matching the folded conditions.
func (s *MemoryUserSource) CountUsers(ctx context.Context, conds []condition.Condition) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, u := range s.users {
		if condition.MatchFold(u.Attributes, conds) {
			count++
		}
	}
	return count, nil
}

// ListUserIDs returns the IDs of users matching the folded conditions.
func (s *MemoryUserSource) ListUserIDs(ctx context.Context, conds []condition.Condition) ([]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []uuid.UUID
	for _, u := range s.users {
		if condition.MatchFold(u.Attributes, conds) {
			ids = append(ids, u.ID)
		}
	}
	return ids, nil
}
