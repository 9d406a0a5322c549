package logger_test

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/gatekit/pkg/logger"
)

func TestError(t *testing.T) {
	err := errors.New("boom")
	attr := logger.Error(err)
	require.Equal(t, "error", attr.Key)
	assert.Equal(t, err, attr.Value.Any())

	empty := logger.Error(nil)
	assert.True(t, empty.Equal(slog.Attr{}))
}

func TestUserID(t *testing.T) {
	attr := logger.UserID("123")
	require.Equal(t, "user_id", attr.Key)
	assert.Equal(t, "123", attr.Value.Any())

	empty := logger.UserID(nil)
	assert.True(t, empty.Equal(slog.Attr{}))
}

func TestFlag(t *testing.T) {
	attr := logger.Flag("dark-mode")
	require.Equal(t, "flag", attr.Key)
	assert.Equal(t, "dark-mode", attr.Value.String())
}

func TestSegment(t *testing.T) {
	attr := logger.Segment("power-users")
	require.Equal(t, "segment", attr.Key)
	assert.Equal(t, "power-users", attr.Value.String())
}

func TestUserCount(t *testing.T) {
	attr := logger.UserCount(42)
	require.Equal(t, "user_count", attr.Key)
	assert.Equal(t, int64(42), attr.Value.Int64())
}

func TestDuration(t *testing.T) {
	attr := logger.Duration(15 * time.Minute)
	require.Equal(t, "duration", attr.Key)
	assert.Equal(t, 15*time.Minute, attr.Value.Any())
}

func TestComponent(t *testing.T) {
	attr := logger.Component("refresher")
	require.Equal(t, "component", attr.Key)
	assert.Equal(t, "refresher", attr.Value.String())
}
