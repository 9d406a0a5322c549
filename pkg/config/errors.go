package config

import "errors"

var (
	// ErrParsingConfig wraps failures to parse environment variables
	// into a config struct, including missing required values.
	ErrParsingConfig = errors.New("failed to parse environment variables into config")

	// ErrNilPointer is returned when a nil pointer is given to Load.
	ErrNilPointer = errors.New("nil pointer provided to config loader")
)
