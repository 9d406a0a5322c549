package redis

import "errors"

var (
	// ErrFailedToParseRedisConnString reports a malformed REDIS_URL.
	ErrFailedToParseRedisConnString = errors.New("failed to parse redis connection string")
	// ErrRedisNotReady reports that every connection attempt failed.
	ErrRedisNotReady = errors.New("redis did not become ready within the given time period")
	// ErrHealthcheckFailed wraps a failed probe ping.
	ErrHealthcheckFailed = errors.New("redis healthcheck failed")
)
