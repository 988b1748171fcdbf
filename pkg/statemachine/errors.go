package statemachine

import (
	"errors"
	"fmt"
)

// ErrNoTransition is matched by every *NoTransitionError.
var ErrNoTransition = errors.New("no transition available")

// NoTransitionError reports that the table has no entry for the state/event pair.
type NoTransitionError struct {
	State string
	Event string
}

func (e *NoTransitionError) Error() string {
	return fmt.Sprintf("no transition available from state %q for event %q", e.State, e.Event)
}

func (e *NoTransitionError) Is(target error) bool {
	return target == ErrNoTransition
}

// RejectedError reports that a guard refused the transition.
type RejectedError struct {
	State string
	Event string
	Err   error
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("transition from state %q for event %q rejected: %v", e.State, e.Event, e.Err)
}

func (e *RejectedError) Unwrap() error {
	return e.Err
}

func IsNoTransition(err error) bool {
	return errors.Is(err, ErrNoTransition)
}

func IsRejected(err error) bool {
	var e *RejectedError
	return errors.As(err, &e)
}
