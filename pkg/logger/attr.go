package logger

import (
	"log/slog"
	"time"
)

// Error records err under "error". A nil error yields an empty Attr which
// slog drops, so callers need no nil check.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// UserID records the acting or receiving user under "user_id".
func UserID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("user_id", id)
}

// AlertID records the alert identifier under "alert_id".
func AlertID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("alert_id", id)
}

// RequestID records the request identifier under "request_id".
func RequestID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("request_id", id)
}

// Count records a number of items (recipients, rows, alerts) under "count".
func Count(n int) slog.Attr {
	return slog.Int("count", n)
}

// Attempt records a retry attempt number under "attempt".
func Attempt(n uint) slog.Attr {
	return slog.Uint64("attempt", uint64(n))
}

func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Job records a scheduler job name under "job".
func Job(name string) slog.Attr {
	return slog.String("job", name)
}
