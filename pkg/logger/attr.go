package logger

import "log/slog"

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// UserID records the user identifier under the key "user_id".
// If id is nil, it returns an empty Attr.
func UserID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("user_id", id)
}

// Flag records a feature flag slug under the key "flag".
func Flag(slug string) slog.Attr {
	return slog.String("flag", slug)
}

// Segment records a segment slug under the key "segment".
func Segment(slug string) slog.Attr {
	return slog.String("segment", slug)
}

// UserCount records a user count under the key "user_count".
func UserCount(n int64) slog.Attr {
	return slog.Int64("user_count", n)
}

// Duration records a duration under the key "duration".
func Duration(d any) slog.Attr {
	return slog.Any("duration", d)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}
