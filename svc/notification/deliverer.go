package notification

import "context"

// Deliverer pushes already persisted notifications to recipients in real time.
// Delivery is best effort; the stored row is the source of truth.
type Deliverer interface {
	DeliverBatch(ctx context.Context, batch []Notification) error
}

// NoOpDeliverer drops everything. Used when real-time delivery is not configured.
type NoOpDeliverer struct{}

func (NoOpDeliverer) DeliverBatch(context.Context, []Notification) error { return nil }
