package alert

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/donoralert/svc/donor"
	"github.com/dmitrymomot/donoralert/svc/notification"
)

// Store persists alerts.
type Store interface {
	Create(ctx context.Context, a Alert) error
	// Get returns ErrNotFound for an unknown id.
	Get(ctx context.Context, id uuid.UUID) (Alert, error)
	List(ctx context.Context, opts ListOptions) ([]Alert, error)
	// ListDue returns unsent alerts whose schedule time is at or before now,
	// oldest schedule first.
	ListDue(ctx context.Context, now time.Time, limit int) ([]Alert, error)
	// MarkSent sets sent_at only if it is still unset and reports whether it did.
	MarkSent(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
}

// RecipientCounter is implemented by stores that can count the notifications
// written for an alert.
type RecipientCounter interface {
	CountRecipients(ctx context.Context, alertID uuid.UUID) (int, error)
}

// Tx is one unit of work. Reads through Directory see a single snapshot and
// writes are committed or discarded together.
type Tx interface {
	Alerts() Store
	Directory() donor.Directory
	Notifications() notification.BatchInserter
}

// Transactor runs fn in a unit of work, committing when fn returns nil.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
