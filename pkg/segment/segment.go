package segment

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/gatekit/pkg/condition"
)

// Segment is a named group of users. Dynamic segments compute their
// membership from conditions; static segments hold whatever members
// were curated by hand.
type Segment struct {
	Name             string                `json:"name"`
	Slug             string                `json:"slug"`
	Description      string                `json:"description,omitempty"`
	Conditions       []condition.Condition `json:"conditions,omitempty"`
	Dynamic          bool                  `json:"dynamic"`
	Active           bool                  `json:"active"`
	UserCount        int64                 `json:"user_count"`
	LastCalculatedAt *time.Time            `json:"last_calculated_at,omitempty"`
	CreatedAt        time.Time             `json:"created_at,omitzero"`
	UpdatedAt        time.Time             `json:"updated_at,omitzero"`
}

// Member is one membership row, owned by the segment.
type Member struct {
	UserID   uuid.UUID `json:"user_id"`
	JoinedAt time.Time `json:"joined_at"`
}

// User is a record of the external user population the engine queries.
// Attributes feed condition evaluation.
type User struct {
	ID         uuid.UUID
	Attributes map[string]any
}

// Validate checks the segment configuration before persisting.
func (s *Segment) Validate() error {
	if s == nil {
		return errors.Join(ErrInvalidSegment, errors.New("segment cannot be nil"))
	}
	if s.Slug == "" {
		return errors.Join(ErrInvalidSegment, errors.New("segment slug cannot be empty"))
	}
	for _, c := range s.Conditions {
		if c.Field != "" && !condition.IsKnownOperator(c.Operator) {
			return errors.Join(ErrInvalidSegment,
				fmt.Errorf("unknown condition operator %q for field %q", c.Operator, c.Field))
		}
		if c.Logic != "" && c.Logic != condition.LogicAnd && c.Logic != condition.LogicOr {
			return errors.Join(ErrInvalidSegment,
				fmt.Errorf("unknown condition logic %q for field %q", c.Logic, c.Field))
		}
	}
	return nil
}

// computed reports whether membership is derived from conditions.
// Static segments and dynamic segments without conditions keep their
// manually maintained membership untouched.
func (s *Segment) computed() bool {
	return s.Dynamic && len(s.Conditions) > 0
}

func (s *Segment) clone() *Segment {
	if s == nil {
		return nil
	}
	out := *s
	if s.Conditions != nil {
		out.Conditions = make([]condition.Condition, len(s.Conditions))
		copy(out.Conditions, s.Conditions)
	}
	if s.LastCalculatedAt != nil {
		t := *s.LastCalculatedAt
		out.LastCalculatedAt = &t
	}
	return &out
}
