package featuregate

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrymomot/gatekit/pkg/slug"
)

// MemoryStore is an in-memory implementation of the Store interface,
// useful for tests and single-process deployments.
type MemoryStore struct {
	flags map[string]*Flag
	mu    sync.RWMutex
}

// NewMemoryStore creates an in-memory flag store, optionally seeded
// with initial flags. Seed flags without a slug get one derived from
// their name.
func NewMemoryStore(initial ...*Flag) (*MemoryStore, error) {
	store := &MemoryStore{
		flags: make(map[string]*Flag),
	}

	for _, flag := range initial {
		if flag == nil {
			continue
		}
		if flag.Slug == "" && flag.Name != "" {
			flag.Slug = slug.Make(flag.Name)
		}
		if err := flag.Validate(); err != nil {
			return nil, err
		}

		cp := flag.clone()
		if cp.CreatedAt.IsZero() {
			cp.CreatedAt = time.Now()
		}
		if cp.UpdatedAt.IsZero() {
			cp.UpdatedAt = cp.CreatedAt
		}
		store.flags[cp.Slug] = cp
	}

	return store, nil
}

// GetFlag returns a copy of the flag with the given slug.
func (m *MemoryStore) GetFlag(ctx context.Context, flagSlug string) (*Flag, error) {
	m.mu.RLock()
	flag, exists := m.flags[flagSlug]
	m.mu.RUnlock()

	if !exists {
		return nil, ErrFlagNotFound
	}
	return flag.clone(), nil
}

// ListFlags returns copies of all flags.
func (m *MemoryStore) ListFlags(ctx context.Context) ([]*Flag, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*Flag, 0, len(m.flags))
	for _, flag := range m.flags {
		result = append(result, flag.clone())
	}
	return result, nil
}

// CreateFlag adds a new flag, rejecting slug collisions.
func (m *MemoryStore) CreateFlag(ctx context.Context, flag *Flag) error {
	if err := flag.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.flags[flag.Slug]; exists {
		return ErrFlagExists
	}

	now := time.Now()
	flag.CreatedAt = now
	flag.UpdatedAt = now

	m.flags[flag.Slug] = flag.clone()
	return nil
}

// UpdateFlag replaces an existing flag, preserving its creation time.
func (m *MemoryStore) UpdateFlag(ctx context.Context, flag *Flag) error {
	if err := flag.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	existing, exists := m.flags[flag.Slug]
	if !exists {
		return ErrFlagNotFound
	}

	flag.CreatedAt = existing.CreatedAt
	flag.UpdatedAt = time.Now()

	m.flags[flag.Slug] = flag.clone()
	return nil
}

// DeleteFlag removes a flag by slug.
func (m *MemoryStore) DeleteFlag(ctx context.Context, flagSlug string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.flags[flagSlug]; !exists {
		return ErrFlagNotFound
	}
	delete(m.flags, flagSlug)
	return nil
}
