package alert

import (
	"context"

	"github.com/dmitrymomot/donoralert/pkg/statemachine"
)

// State of an alert in its lifecycle.
type State string

const (
	StateNew       State = "new"
	StateDraft     State = "draft"
	StateScheduled State = "scheduled"
	StateSent      State = "sent"
)

// Event moves an alert between states.
type Event string

const (
	EventCreate   Event = "create"
	EventSchedule Event = "schedule"
	EventSend     Event = "send"
)

// Sent is terminal: nothing is permitted out of it.
var lifecycle = statemachine.New[State, Event]().
	Permit(StateNew, EventCreate, StateDraft).
	Permit(StateDraft, EventSchedule, StateScheduled).
	Permit(StateDraft, EventSend, StateSent).
	Permit(StateScheduled, EventSend, StateSent)

// initialState walks a freshly drafted alert to the state it is created in.
func initialState(ctx context.Context, d Draft) (State, error) {
	state, err := lifecycle.Next(ctx, StateNew, EventCreate)
	if err != nil {
		return "", err
	}
	switch {
	case d.SendsNow():
		return lifecycle.Next(ctx, state, EventSend)
	case d.ScheduleAt != nil:
		return lifecycle.Next(ctx, state, EventSchedule)
	}
	return state, nil
}

// canSend maps a refused send transition to ErrAlreadySent.
func canSend(ctx context.Context, a Alert) error {
	if _, err := lifecycle.Next(ctx, a.State(), EventSend); err != nil {
		if statemachine.IsNoTransition(err) {
			return ErrAlreadySent
		}
		return err
	}
	return nil
}
