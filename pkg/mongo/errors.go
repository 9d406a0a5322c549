package mongo

import "errors"

var (
	// ErrFailedToConnectToMongo reports that every connection attempt failed.
	ErrFailedToConnectToMongo = errors.New("failed to connect to mongo")
	// ErrHealthcheckFailed wraps a failed probe ping.
	ErrHealthcheckFailed = errors.New("mongo healthcheck failed")
)
