// Package statemachine provides a small, stateless finite state machine.
//
// A Machine is a transition table keyed by (state, event). It never holds a
// current state: callers derive the state from their persisted record, ask
// the machine for the next state and persist the result themselves. This
// keeps the machine safe to share between goroutines once built.
//
//	m := statemachine.New[State, Event]().
//		Permit(Draft, Send, Sent).
//		Permit(Scheduled, Send, Sent, notExpired)
//
//	next, err := m.Next(ctx, current, Send)
package statemachine
