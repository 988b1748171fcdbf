package memory

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/donoralert/svc/notification"
)

// Notifications implements notification.Store.
type Notifications struct {
	access access
	hook   func() InsertHook
}

func (n *Notifications) BatchInsert(ctx context.Context, batch []notification.Notification) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	written := 0
	err := n.access(func(s *state) error {
		if h := n.hook(); h != nil {
			if err := h(batch); err != nil {
				return err
			}
		}
		s.notifications = append(s.notifications, batch...)
		written = len(batch)
		return nil
	})
	return written, err
}

// List returns the user's notifications, newest first.
func (n *Notifications) List(ctx context.Context, userID uuid.UUID, opts notification.ListOptions) ([]notification.Notification, error) {
	var out []notification.Notification
	err := n.access(func(s *state) error {
		for _, item := range slices.Backward(s.notifications) {
			if item.UserID == userID && opts.Matches(item) {
				out = append(out, item)
			}
		}
		slices.SortStableFunc(out, func(x, y notification.Notification) int {
			return y.CreatedAt.Compare(x.CreatedAt)
		})
		out = page(out, opts.Offset, opts.Limit)
		return nil
	})
	return out, err
}

func (n *Notifications) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	count := 0
	err := n.access(func(s *state) error {
		for _, item := range s.notifications {
			if item.UserID == userID && !item.IsRead {
				count++
			}
		}
		return nil
	})
	return count, err
}

func (n *Notifications) MarkRead(ctx context.Context, userID, id uuid.UUID, at time.Time) error {
	return n.access(func(s *state) error {
		for i := range s.notifications {
			item := &s.notifications[i]
			if item.ID != id || item.UserID != userID {
				continue
			}
			if !item.IsRead {
				item.IsRead = true
				item.ReadAt = &at
			}
			return nil
		}
		return notification.ErrNotFound
	})
}

func (n *Notifications) MarkAllRead(ctx context.Context, userID uuid.UUID, at time.Time) (int, error) {
	changed := 0
	err := n.access(func(s *state) error {
		for i := range s.notifications {
			item := &s.notifications[i]
			if item.UserID == userID && !item.IsRead {
				item.IsRead = true
				item.ReadAt = &at
				changed++
			}
		}
		return nil
	})
	return changed, err
}

func (n *Notifications) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return n.access(func(s *state) error {
		idx := slices.IndexFunc(s.notifications, func(item notification.Notification) bool {
			return item.ID == id && item.UserID == userID
		})
		if idx < 0 {
			return notification.ErrNotFound
		}
		s.notifications = slices.Delete(s.notifications, idx, idx+1)
		return nil
	})
}

func (n *Notifications) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	removed := 0
	err := n.access(func(s *state) error {
		before := len(s.notifications)
		s.notifications = slices.DeleteFunc(s.notifications, func(item notification.Notification) bool {
			return item.CreatedAt.Before(cutoff)
		})
		removed = before - len(s.notifications)
		return nil
	})
	return removed, err
}

func (n *Notifications) CountByAlert(ctx context.Context, alertID uuid.UUID) (int, error) {
	count := 0
	err := n.access(func(s *state) error {
		for _, item := range s.notifications {
			if item.AlertID != nil && *item.AlertID == alertID {
				count++
			}
		}
		return nil
	})
	return count, err
}
