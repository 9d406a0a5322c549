package pg

import "context"

// logger is the slice of *slog.Logger the migration path needs; an
// interface keeps this package from depending on a concrete logger.
type logger interface {
	InfoContext(ctx context.Context, msg string, args ...any)
	ErrorContext(ctx context.Context, msg string, args ...any)
}
