package alert

import "context"

// Publisher is told about lifecycle milestones after they are committed.
// Errors are logged by the caller and never undo the operation.
type Publisher interface {
	AlertCreated(ctx context.Context, a Alert) error
	AlertSent(ctx context.Context, a Alert, recipients int) error
	FanOutFailed(ctx context.Context, a Alert, cause error) error
}

// NopPublisher ignores every event.
type NopPublisher struct{}

func (NopPublisher) AlertCreated(context.Context, Alert) error       { return nil }
func (NopPublisher) AlertSent(context.Context, Alert, int) error     { return nil }
func (NopPublisher) FanOutFailed(context.Context, Alert, error) error { return nil }
