package statemachine

import (
	"context"
	"fmt"
)

// Guard vetoes a transition by returning a non-nil error.
type Guard[S, E comparable] func(ctx context.Context, from S, event E) error

type transition[S, E comparable] struct {
	to     S
	guards []Guard[S, E]
}

// Machine is a transition table. Build it once with Permit, then use it
// concurrently.
type Machine[S, E comparable] struct {
	table map[S]map[E]transition[S, E]
}

func New[S, E comparable]() *Machine[S, E] {
	return &Machine[S, E]{table: make(map[S]map[E]transition[S, E])}
}

// Permit registers from --event--> to. A later Permit for the same pair
// replaces the earlier one.
func (m *Machine[S, E]) Permit(from S, event E, to S, guards ...Guard[S, E]) *Machine[S, E] {
	events, ok := m.table[from]
	if !ok {
		events = make(map[E]transition[S, E])
		m.table[from] = events
	}
	events[event] = transition[S, E]{to: to, guards: guards}
	return m
}

// Next returns the state reached by firing event in state from.
func (m *Machine[S, E]) Next(ctx context.Context, from S, event E) (S, error) {
	t, ok := m.table[from][event]
	if !ok {
		var zero S
		return zero, &NoTransitionError{State: fmt.Sprint(from), Event: fmt.Sprint(event)}
	}
	for _, g := range t.guards {
		if err := g(ctx, from, event); err != nil {
			var zero S
			return zero, &RejectedError{State: fmt.Sprint(from), Event: fmt.Sprint(event), Err: err}
		}
	}
	return t.to, nil
}

// CanFire reports whether Next would succeed.
func (m *Machine[S, E]) CanFire(ctx context.Context, from S, event E) bool {
	_, err := m.Next(ctx, from, event)
	return err == nil
}

// Terminal reports whether no event leads out of s.
func (m *Machine[S, E]) Terminal(s S) bool {
	return len(m.table[s]) == 0
}
