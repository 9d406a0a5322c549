package featuregate

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/gatekit/pkg/pg"
)

// PostgresStore persists feature flags in PostgreSQL. Conditions are
// stored as a jsonb document, segments as a text array. See the
// feature_flags migration for the schema.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a flag store backed by the given pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// NewPostgresStoreFromConfig opens a pool with the connection settings
// from cfg and builds the store over it. This is the env-driven path:
// load pg.Config through the config package and pass it here.
func NewPostgresStoreFromConfig(ctx context.Context, cfg pg.Config) (*PostgresStore, error) {
	pool, err := pg.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewPostgresStore(pool), nil
}

const flagColumns = `slug, name, description, enabled, conditions, segments,
	rollout_percentage, starts_at, ends_at, created_at, updated_at`

// GetFlag returns the flag with the given slug.
func (s *PostgresStore) GetFlag(ctx context.Context, slug string) (*Flag, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+flagColumns+` FROM feature_flags WHERE slug = $1`, slug)

	flag, err := scanFlag(row)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrFlagNotFound
		}
		return nil, err
	}
	return flag, nil
}

// ListFlags returns all flags ordered by slug.
func (s *PostgresStore) ListFlags(ctx context.Context) ([]*Flag, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+flagColumns+` FROM feature_flags ORDER BY slug`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var flags []*Flag
	for rows.Next() {
		flag, err := scanFlag(rows)
		if err != nil {
			return nil, err
		}
		flags = append(flags, flag)
	}
	return flags, rows.Err()
}

// CreateFlag inserts a new flag.
func (s *PostgresStore) CreateFlag(ctx context.Context, flag *Flag) error {
	if err := flag.Validate(); err != nil {
		return err
	}

	conditions, err := json.Marshal(flag.Conditions)
	if err != nil {
		return errors.Join(ErrInvalidFlag, err)
	}

	now := time.Now()
	_, err = s.pool.Exec(ctx, `
		INSERT INTO feature_flags (`+flagColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)`,
		flag.Slug, flag.Name, flag.Description, flag.Enabled, conditions,
		flag.Segments, flag.RolloutPercentage, flag.StartsAt, flag.EndsAt, now)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return ErrFlagExists
		}
		return err
	}

	flag.CreatedAt = now
	flag.UpdatedAt = now
	return nil
}

// UpdateFlag replaces an existing flag's configuration.
func (s *PostgresStore) UpdateFlag(ctx context.Context, flag *Flag) error {
	if err := flag.Validate(); err != nil {
		return err
	}

	conditions, err := json.Marshal(flag.Conditions)
	if err != nil {
		return errors.Join(ErrInvalidFlag, err)
	}

	now := time.Now()
	tag, err := s.pool.Exec(ctx, `
		UPDATE feature_flags SET
			name = $2, description = $3, enabled = $4, conditions = $5,
			segments = $6, rollout_percentage = $7, starts_at = $8,
			ends_at = $9, updated_at = $10
		WHERE slug = $1`,
		flag.Slug, flag.Name, flag.Description, flag.Enabled, conditions,
		flag.Segments, flag.RolloutPercentage, flag.StartsAt, flag.EndsAt, now)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrFlagNotFound
	}

	flag.UpdatedAt = now
	return nil
}

// DeleteFlag removes a flag by slug.
func (s *PostgresStore) DeleteFlag(ctx context.Context, slug string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM feature_flags WHERE slug = $1`, slug)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrFlagNotFound
	}
	return nil
}

func scanFlag(row pgx.Row) (*Flag, error) {
	var (
		flag       Flag
		conditions []byte
	)
	err := row.Scan(&flag.Slug, &flag.Name, &flag.Description, &flag.Enabled,
		&conditions, &flag.Segments, &flag.RolloutPercentage,
		&flag.StartsAt, &flag.EndsAt, &flag.CreatedAt, &flag.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if len(conditions) > 0 {
		if err := json.Unmarshal(conditions, &flag.Conditions); err != nil {
			return nil, errors.Join(ErrInvalidFlag, err)
		}
	}
	return &flag, nil
}
