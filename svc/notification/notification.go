// Package notification holds the per-recipient records produced when an alert
// is sent, and the operations recipients run against their own inbox.
package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Type classifies a notification.
type Type string

const (
	TypeAlert        Type = "alert"
	TypeMessageReply Type = "message_reply"
	TypeSystem       Type = "system"
)

func (t Type) Valid() bool {
	switch t {
	case TypeAlert, TypeMessageReply, TypeSystem:
		return true
	}
	return false
}

// Notification is one message addressed to one user.
type Notification struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	Type      Type       `json:"notification_type"`
	IsRead    bool       `json:"is_read"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	AlertID   *uuid.UUID `json:"alert_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// ListOptions filters a recipient's inbox. Nil fields are not applied.
type ListOptions struct {
	Type   *Type
	IsRead *bool
	Limit  int // 0 = no limit
	Offset int
}

// Matches reports whether n passes the type and read filters.
func (o ListOptions) Matches(n Notification) bool {
	if o.Type != nil && n.Type != *o.Type {
		return false
	}
	if o.IsRead != nil && n.IsRead != *o.IsRead {
		return false
	}
	return true
}

// BatchInserter persists a batch atomically and reports how many rows were written.
type BatchInserter interface {
	BatchInsert(ctx context.Context, batch []Notification) (int, error)
}

// Store is the persistence used by the inbox operations.
// Every recipient-scoped method returns ErrNotFound when the notification
// does not exist or belongs to someone else.
type Store interface {
	BatchInserter

	// List returns the user's notifications, newest first.
	List(ctx context.Context, userID uuid.UUID, opts ListOptions) ([]Notification, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID, at time.Time) error
	MarkAllRead(ctx context.Context, userID uuid.UUID, at time.Time) (int, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error

	// DeleteOlderThan removes notifications created before cutoff.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)
	CountByAlert(ctx context.Context, alertID uuid.UUID) (int, error)
}
