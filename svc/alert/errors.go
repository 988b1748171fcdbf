package alert

import (
	"errors"
	"strings"
)

var (
	ErrNotFound = errors.New("alert not found")

	// ErrAlreadySent is returned to every sender except the one that stamped sent_at.
	ErrAlreadySent = errors.New("alert already sent")

	// ErrPartialFanOut means the send transaction failed after it started
	// writing; nothing was committed and the send may be retried.
	ErrPartialFanOut = errors.New("alert fan-out failed")

	ErrInvalidAlert = errors.New("invalid alert")
)

// IsRetryable reports whether a send failure may succeed on another attempt.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrPartialFanOut)
}

// InvalidError lists every problem found in a draft.
type InvalidError struct {
	Problems []string
}

func newInvalidError(problems []string) *InvalidError {
	return &InvalidError{Problems: problems}
}

func (e *InvalidError) Error() string {
	return ErrInvalidAlert.Error() + ": " + strings.Join(e.Problems, "; ")
}

func (e *InvalidError) Is(target error) bool {
	return target == ErrInvalidAlert
}
