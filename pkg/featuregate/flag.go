package featuregate

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/gatekit/pkg/condition"
)

// Flag represents a feature flag with its targeting configuration.
type Flag struct {
	Name              string                `json:"name"`
	Slug              string                `json:"slug"`
	Description       string                `json:"description,omitempty"`
	Enabled           bool                  `json:"enabled"`
	Conditions        []condition.Condition `json:"conditions,omitempty"`
	Segments          []string              `json:"segments,omitempty"`
	RolloutPercentage int                   `json:"rollout_percentage"`
	StartsAt          *time.Time            `json:"starts_at,omitempty"`
	EndsAt            *time.Time            `json:"ends_at,omitempty"`
	CreatedAt         time.Time             `json:"created_at,omitzero"`
	UpdatedAt         time.Time             `json:"updated_at,omitzero"`
}

// Subject is the user-like record a flag is evaluated against. The ID
// feeds the rollout bucket hash; Attributes feed condition evaluation.
type Subject struct {
	ID         uuid.UUID
	Attributes map[string]any
}

// Validate checks the flag configuration. Stores call it before
// persisting so misconfiguration surfaces at write time rather than as
// permissive evaluation defaults at request time.
func (f *Flag) Validate() error {
	if f == nil {
		return errors.Join(ErrInvalidFlag, errors.New("flag cannot be nil"))
	}
	if f.Slug == "" {
		return errors.Join(ErrInvalidFlag, errors.New("flag slug cannot be empty"))
	}
	if f.RolloutPercentage < 0 || f.RolloutPercentage > 100 {
		return errors.Join(ErrInvalidFlag,
			fmt.Errorf("rollout percentage must be between 0 and 100, got %d", f.RolloutPercentage))
	}
	if f.StartsAt != nil && f.EndsAt != nil && f.EndsAt.Before(*f.StartsAt) {
		return errors.Join(ErrInvalidFlag, errors.New("end date cannot precede start date"))
	}
	for _, c := range f.Conditions {
		if c.Field != "" && !condition.IsKnownOperator(c.Operator) {
			return errors.Join(ErrInvalidFlag,
				fmt.Errorf("unknown condition operator %q for field %q", c.Operator, c.Field))
		}
	}
	return nil
}

// IsActiveAt reports whether the flag is globally enabled and inside
// its activation window at t. Both window bounds are inclusive and nil
// means unbounded on that side.
func (f *Flag) IsActiveAt(t time.Time) bool {
	if f == nil || !f.Enabled {
		return false
	}
	if f.StartsAt != nil && t.Before(*f.StartsAt) {
		return false
	}
	if f.EndsAt != nil && t.After(*f.EndsAt) {
		return false
	}
	return true
}

// clone returns a deep copy so stores never hand out aliased slices.
func (f *Flag) clone() *Flag {
	if f == nil {
		return nil
	}
	out := *f
	if f.Conditions != nil {
		out.Conditions = make([]condition.Condition, len(f.Conditions))
		copy(out.Conditions, f.Conditions)
	}
	if f.Segments != nil {
		out.Segments = make([]string, len(f.Segments))
		copy(out.Segments, f.Segments)
	}
	if f.StartsAt != nil {
		t := *f.StartsAt
		out.StartsAt = &t
	}
	if f.EndsAt != nil {
		t := *f.EndsAt
		out.EndsAt = &t
	}
	return &out
}
