package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/donoralert/svc/alert"
)

// Alerts implements alert.Store.
type Alerts struct {
	access access
}

func (a *Alerts) Create(ctx context.Context, al alert.Alert) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return a.access(func(s *state) error {
		if _, exists := s.alerts[al.ID]; exists {
			return fmt.Errorf("alert %s already exists", al.ID)
		}
		s.alerts[al.ID] = al
		s.alertOrder = append(s.alertOrder, al.ID)
		return nil
	})
}

func (a *Alerts) Get(ctx context.Context, id uuid.UUID) (alert.Alert, error) {
	var out alert.Alert
	err := a.access(func(s *state) error {
		al, ok := s.alerts[id]
		if !ok {
			return alert.ErrNotFound
		}
		out = al
		return nil
	})
	return out, err
}

// List returns alerts newest first.
func (a *Alerts) List(ctx context.Context, opts alert.ListOptions) ([]alert.Alert, error) {
	var out []alert.Alert
	err := a.access(func(s *state) error {
		all := make([]alert.Alert, 0, len(s.alertOrder))
		for _, id := range slices.Backward(s.alertOrder) {
			all = append(all, s.alerts[id])
		}
		slices.SortStableFunc(all, func(x, y alert.Alert) int {
			return y.CreatedAt.Compare(x.CreatedAt)
		})
		out = page(all, opts.Offset, opts.Limit)
		return nil
	})
	return out, err
}

func (a *Alerts) ListDue(ctx context.Context, now time.Time, limit int) ([]alert.Alert, error) {
	var out []alert.Alert
	err := a.access(func(s *state) error {
		for _, id := range s.alertOrder {
			if al := s.alerts[id]; al.Due(now) {
				out = append(out, al)
			}
		}
		slices.SortStableFunc(out, func(x, y alert.Alert) int {
			return cmp.Compare(x.ScheduleAt.UnixNano(), y.ScheduleAt.UnixNano())
		})
		out = page(out, 0, limit)
		return nil
	})
	return out, err
}

func (a *Alerts) MarkSent(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	var marked bool
	err := a.access(func(s *state) error {
		al, ok := s.alerts[id]
		if !ok || al.SentAt != nil {
			return nil
		}
		al.SentAt = &at
		s.alerts[id] = al
		marked = true
		return nil
	})
	return marked, err
}

func (a *Alerts) CountRecipients(ctx context.Context, alertID uuid.UUID) (int, error) {
	return (&Notifications{access: a.access}).CountByAlert(ctx, alertID)
}

func page[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
