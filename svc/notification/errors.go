package notification

import "errors"

var (
	// ErrNotFound is returned when a notification is missing or not owned by the caller.
	ErrNotFound = errors.New("notification not found")

	ErrInvalidType = errors.New("invalid notification type")
)
