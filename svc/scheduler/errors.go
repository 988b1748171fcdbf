package scheduler

import "errors"

var (
	ErrJobAlreadyRegistered = errors.New("job already registered")
	ErrNotConfigured        = errors.New("scheduler has no jobs")
	ErrInvalidJob           = errors.New("invalid job")
	ErrJobPanicked          = errors.New("job panicked")
)
