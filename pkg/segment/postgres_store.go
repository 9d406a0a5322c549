package segment

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/gatekit/pkg/condition"
	"github.com/dmitrymomot/gatekit/pkg/pg"
)

// PostgresStore persists segments and membership rows in PostgreSQL.
// Membership mutations run inside transactions that lock the segment
// row, which serializes concurrent count updates per segment and makes
// ReplaceMembers atomic for readers. See the user_segments migration
// for the schema.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a segment store backed by the given pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const segmentColumns = `slug, name, description, conditions, is_dynamic, is_active,
	user_count, last_calculated_at, created_at, updated_at`

// GetSegment returns the segment with the given slug.
func (s *PostgresStore) GetSegment(ctx context.Context, slug string) (*Segment, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+segmentColumns+` FROM user_segments WHERE slug = $1`, slug)

	seg, err := scanSegment(row)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrSegmentNotFound
		}
		return nil, err
	}
	return seg, nil
}

// ListSegments returns all segments ordered by slug.
func (s *PostgresStore) ListSegments(ctx context.Context) ([]*Segment, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+segmentColumns+` FROM user_segments ORDER BY slug`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var segments []*Segment
	for rows.Next() {
		seg, err := scanSegment(rows)
		if err != nil {
			return nil, err
		}
		segments = append(segments, seg)
	}
	return segments, rows.Err()
}

// CreateSegment inserts a new segment.
func (s *PostgresStore) CreateSegment(ctx context.Context, seg *Segment) error {
	if err := seg.Validate(); err != nil {
		return err
	}

	conditions, err := json.Marshal(seg.Conditions)
	if err != nil {
		return errors.Join(ErrInvalidSegment, err)
	}

	now := time.Now()
	_, err = s.pool.Exec(ctx, `
		INSERT INTO user_segments (`+segmentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, 0, NULL, $7, $7)`,
		seg.Slug, seg.Name, seg.Description, conditions, seg.Dynamic, seg.Active, now)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return ErrSegmentExists
		}
		return err
	}

	seg.CreatedAt = now
	seg.UpdatedAt = now
	return nil
}

// UpdateSegment replaces a segment's configuration, leaving membership
// rows and cached stats untouched.
func (s *PostgresStore) UpdateSegment(ctx context.Context, seg *Segment) error {
	if err := seg.Validate(); err != nil {
		return err
	}

	conditions, err := json.Marshal(seg.Conditions)
	if err != nil {
		return errors.Join(ErrInvalidSegment, err)
	}

	now := time.Now()
	tag, err := s.pool.Exec(ctx, `
		UPDATE user_segments SET
			name = $2, description = $3, conditions = $4,
			is_dynamic = $5, is_active = $6, updated_at = $7
		WHERE slug = $1`,
		seg.Slug, seg.Name, seg.Description, conditions, seg.Dynamic, seg.Active, now)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSegmentNotFound
	}

	seg.UpdatedAt = now
	return nil
}

// DeleteSegment removes a segment; membership rows go with it via
// ON DELETE CASCADE.
func (s *PostgresStore) DeleteSegment(ctx context.Context, slug string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM user_segments WHERE slug = $1`, slug)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSegmentNotFound
	}
	return nil
}

// UpdateStats persists a fresh user count and calculation timestamp.
func (s *PostgresStore) UpdateStats(ctx context.Context, slug string, userCount int64, calculatedAt time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE user_segments
		SET user_count = $2, last_calculated_at = $3, updated_at = $3
		WHERE slug = $1`,
		slug, userCount, calculatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSegmentNotFound
	}
	return nil
}

// IsMember reports whether the user has a membership row.
func (s *PostgresStore) IsMember(ctx context.Context, slug string, userID uuid.UUID) (bool, error) {
	var member bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM user_segment_members
			WHERE segment_slug = $1 AND user_id = $2
		)`, slug, userID).Scan(&member)
	return member, err
}

// ListMemberIDs returns the IDs of all current members.
func (s *PostgresStore) ListMemberIDs(ctx context.Context, slug string) ([]uuid.UUID, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT user_id FROM user_segment_members
		WHERE segment_slug = $1`, slug)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AddMember inserts a membership row unless one exists. The segment
// row lock serializes the count increment against other mutations.
func (s *PostgresStore) AddMember(ctx context.Context, slug string, userID uuid.UUID, joinedAt time.Time) (bool, error) {
	var inserted bool
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if err := lockSegment(ctx, tx, slug); err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, `
			INSERT INTO user_segment_members (segment_slug, user_id, joined_at)
			VALUES ($1, $2, $3)
			ON CONFLICT DO NOTHING`,
			slug, userID, joinedAt)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return nil
		}
		inserted = true

		_, err = tx.Exec(ctx, `
			UPDATE user_segments SET user_count = user_count + 1, updated_at = $2
			WHERE slug = $1`, slug, joinedAt)
		return err
	})
	return inserted, err
}

// RemoveMember deletes a membership row if present, guarding the count
// against going below zero.
func (s *PostgresStore) RemoveMember(ctx context.Context, slug string, userID uuid.UUID) (bool, error) {
	var removed bool
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if err := lockSegment(ctx, tx, slug); err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, `
			DELETE FROM user_segment_members
			WHERE segment_slug = $1 AND user_id = $2`,
			slug, userID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return nil
		}
		removed = true

		_, err = tx.Exec(ctx, `
			UPDATE user_segments
			SET user_count = GREATEST(user_count - 1, 0), updated_at = now()
			WHERE slug = $1`, slug)
		return err
	})
	return removed, err
}

// ReplaceMembers synchronizes membership to exactly userIDs inside one
// transaction: removals, additions and the stats update commit
// together. Surviving rows keep their joined_at.
func (s *PostgresStore) ReplaceMembers(ctx context.Context, slug string, userIDs []uuid.UUID, calculatedAt time.Time) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if err := lockSegment(ctx, tx, slug); err != nil {
			return err
		}

		// A nil slice binds as SQL NULL and `<> ALL(NULL)` matches no
		// rows, so an empty result set gets an unconditional delete.
		if len(userIDs) == 0 {
			if _, err := tx.Exec(ctx, `
				DELETE FROM user_segment_members WHERE segment_slug = $1`,
				slug); err != nil {
				return err
			}
		} else if _, err := tx.Exec(ctx, `
			DELETE FROM user_segment_members
			WHERE segment_slug = $1 AND user_id <> ALL($2)`,
			slug, userIDs); err != nil {
			return err
		}

		if len(userIDs) > 0 {
			if _, err := tx.Exec(ctx, `
				INSERT INTO user_segment_members (segment_slug, user_id, joined_at)
				SELECT $1, unnest($2::uuid[]), $3
				ON CONFLICT DO NOTHING`,
				slug, userIDs, calculatedAt); err != nil {
				return err
			}
		}

		_, err := tx.Exec(ctx, `
			UPDATE user_segments
			SET user_count = $2, last_calculated_at = $3, updated_at = $3
			WHERE slug = $1`,
			slug, int64(len(userIDs)), calculatedAt)
		return err
	})
}

// lockSegment takes the segment's row lock, mapping a missing row to
// ErrSegmentNotFound.
func lockSegment(ctx context.Context, tx pgx.Tx, slug string) error {
	var s string
	err := tx.QueryRow(ctx,
		`SELECT slug FROM user_segments WHERE slug = $1 FOR UPDATE`, slug).Scan(&s)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return ErrSegmentNotFound
		}
		return err
	}
	return nil
}

func scanSegment(row pgx.Row) (*Segment, error) {
	var (
		seg        Segment
		conditions []byte
	)
	err := row.Scan(&seg.Slug, &seg.Name, &seg.Description, &conditions,
		&seg.Dynamic, &seg.Active, &seg.UserCount, &seg.LastCalculatedAt,
		&seg.CreatedAt, &seg.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if len(conditions) > 0 {
		if err := json.Unmarshal(conditions, &seg.Conditions); err != nil {
			return nil, errors.Join(ErrInvalidSegment, err)
		}
	}
	return &seg, nil
}

// PostgresUserSource queries the user population with segment
// conditions translated into SQL over the users table's jsonb
// attributes column.
type PostgresUserSource struct {
	pool *pgxpool.Pool
}

// NewPostgresUserSource creates a user source backed by the given pool.
func NewPostgresUserSource(pool *pgxpool.Pool) *PostgresUserSource {
	return &PostgresUserSource{pool: pool}
}

// CountUsers counts users matching the folded conditions.
func (s *PostgresUserSource) CountUsers(ctx context.Context, conds []condition.Condition) (int64, error) {
	filter, args := buildConditionFilter(conds)

	var count int64
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM users WHERE `+filter, args...).Scan(&count)
	return count, err
}

// ListUserIDs returns the IDs of users matching the folded conditions.
func (s *PostgresUserSource) ListUserIDs(ctx context.Context, conds []condition.Condition) ([]uuid.UUID, error) {
	filter, args := buildConditionFilter(conds)

	rows, err := s.pool.Query(ctx,
		`SELECT id FROM users WHERE `+filter, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// TotalUsers counts the whole population, usable as the feature gate's
// population counter for rollout estimates.
func (s *PostgresUserSource) TotalUsers(ctx context.Context) (int64, error) {
	return s.CountUsers(ctx, nil)
}
