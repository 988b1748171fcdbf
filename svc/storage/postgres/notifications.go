package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/donoralert/svc/notification"
)

const notificationColumns = `id, user_id, title, message, notification_type, is_read, read_at, alert_id, created_at`

var notificationCopyColumns = []string{"id", "user_id", "title", "message", "notification_type", "is_read", "read_at", "alert_id", "created_at"}

// Notifications implements notification.Store over the notifications table.
type Notifications struct {
	q querier
}

// BatchInsert writes the batch with COPY; the whole batch lands or none of it.
func (n *Notifications) BatchInsert(ctx context.Context, batch []notification.Notification) (int, error) {
	if len(batch) == 0 {
		return 0, nil
	}
	copied, err := n.q.CopyFrom(ctx, pgx.Identifier{"notifications"}, notificationCopyColumns,
		pgx.CopyFromSlice(len(batch), func(i int) ([]any, error) {
			item := batch[i]
			return []any{item.ID, item.UserID, item.Title, item.Message, string(item.Type),
				item.IsRead, item.ReadAt, item.AlertID, item.CreatedAt}, nil
		}),
	)
	if err != nil {
		return 0, fmt.Errorf("copy notifications: %w", err)
	}
	return int(copied), nil
}

func notificationListQuery(userID uuid.UUID, opts notification.ListOptions) (string, []any) {
	var w where
	w.add("user_id = $%d", userID)
	if opts.Type != nil {
		w.add("notification_type = $%d", string(*opts.Type))
	}
	if opts.IsRead != nil {
		w.add("is_read = $%d", *opts.IsRead)
	}
	args := append(w.args, limitArg(opts.Limit), opts.Offset)
	sql := fmt.Sprintf("SELECT %s FROM notifications%s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d",
		notificationColumns, w.String(), len(args)-1, len(args))
	return sql, args
}

func (n *Notifications) List(ctx context.Context, userID uuid.UUID, opts notification.ListOptions) ([]notification.Notification, error) {
	sql, args := notificationListQuery(userID, opts)
	rows, err := n.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	items, err := pgx.CollectRows(rows, scanNotification)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return items, nil
}

func (n *Notifications) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := n.q.QueryRow(ctx, "SELECT count(*) FROM notifications WHERE user_id = $1 AND NOT is_read", userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

func (n *Notifications) MarkRead(ctx context.Context, userID, id uuid.UUID, at time.Time) error {
	tag, err := n.q.Exec(ctx, `
		UPDATE notifications SET is_read = TRUE, read_at = COALESCE(read_at, $3)
		WHERE id = $1 AND user_id = $2`,
		id, userID, at,
	)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notification.ErrNotFound
	}
	return nil
}

func (n *Notifications) MarkAllRead(ctx context.Context, userID uuid.UUID, at time.Time) (int, error) {
	tag, err := n.q.Exec(ctx,
		"UPDATE notifications SET is_read = TRUE, read_at = $2 WHERE user_id = $1 AND NOT is_read",
		userID, at,
	)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (n *Notifications) Delete(ctx context.Context, userID, id uuid.UUID) error {
	tag, err := n.q.Exec(ctx, "DELETE FROM notifications WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notification.ErrNotFound
	}
	return nil
}

func (n *Notifications) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	tag, err := n.q.Exec(ctx, "DELETE FROM notifications WHERE created_at < $1", cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete old notifications: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (n *Notifications) CountByAlert(ctx context.Context, alertID uuid.UUID) (int, error) {
	var count int
	if err := n.q.QueryRow(ctx, "SELECT count(*) FROM notifications WHERE alert_id = $1", alertID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count alert notifications: %w", err)
	}
	return count, nil
}

func scanNotification(row pgx.CollectableRow) (notification.Notification, error) {
	var (
		item notification.Notification
		typ  string
	)
	err := row.Scan(&item.ID, &item.UserID, &item.Title, &item.Message, &typ,
		&item.IsRead, &item.ReadAt, &item.AlertID, &item.CreatedAt)
	item.Type = notification.Type(typ)
	return item, err
}
