package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/donoralert/pkg/pg"
	"github.com/dmitrymomot/donoralert/svc/alert"
	"github.com/dmitrymomot/donoralert/svc/audience"
)

const alertColumns = `id, title, message, alert_type, priority, target_audience, send_now, schedule_at, sent_at, created_by, created_at`

// Alerts implements alert.Store over the alerts table.
type Alerts struct {
	q querier
}

func (a *Alerts) Create(ctx context.Context, al alert.Alert) error {
	var target []byte
	if !al.Audience.IsBroadcast() {
		var err error
		if target, err = json.Marshal(al.Audience); err != nil {
			return fmt.Errorf("encode audience: %w", err)
		}
	}
	_, err := a.q.Exec(ctx, `
		INSERT INTO alerts (`+alertColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		al.ID, al.Title, al.Message, string(al.Type), string(al.Priority), target,
		al.SendNow, al.ScheduleAt, al.SentAt, al.CreatedBy, al.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert alert: %w", err)
	}
	return nil
}

func (a *Alerts) Get(ctx context.Context, id uuid.UUID) (alert.Alert, error) {
	rows, err := a.q.Query(ctx, "SELECT "+alertColumns+" FROM alerts WHERE id = $1", id)
	if err != nil {
		return alert.Alert{}, fmt.Errorf("get alert: %w", err)
	}
	al, err := pgx.CollectExactlyOneRow(rows, scanAlert)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return alert.Alert{}, alert.ErrNotFound
		}
		return alert.Alert{}, fmt.Errorf("get alert: %w", err)
	}
	return al, nil
}

func (a *Alerts) List(ctx context.Context, opts alert.ListOptions) ([]alert.Alert, error) {
	return a.collect(ctx, "list alerts",
		"SELECT "+alertColumns+" FROM alerts ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2",
		limitArg(opts.Limit), opts.Offset,
	)
}

func (a *Alerts) ListDue(ctx context.Context, now time.Time, limit int) ([]alert.Alert, error) {
	return a.collect(ctx, "list due alerts", `
		SELECT `+alertColumns+` FROM alerts
		WHERE sent_at IS NULL AND schedule_at IS NOT NULL AND schedule_at <= $1
		ORDER BY schedule_at, id
		LIMIT $2`,
		now, limitArg(limit),
	)
}

// MarkSent is the single conditional update that decides the sender.
// A concurrent caller blocks on the row lock and then matches zero rows.
func (a *Alerts) MarkSent(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	tag, err := a.q.Exec(ctx, "UPDATE alerts SET sent_at = $2 WHERE id = $1 AND sent_at IS NULL", id, at)
	if err != nil {
		return false, fmt.Errorf("mark alert sent: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (a *Alerts) CountRecipients(ctx context.Context, alertID uuid.UUID) (int, error) {
	return (&Notifications{q: a.q}).CountByAlert(ctx, alertID)
}

func (a *Alerts) collect(ctx context.Context, op, sql string, args ...any) ([]alert.Alert, error) {
	rows, err := a.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	alerts, err := pgx.CollectRows(rows, scanAlert)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return alerts, nil
}

func scanAlert(row pgx.CollectableRow) (alert.Alert, error) {
	var (
		al       alert.Alert
		typ      string
		priority string
		target   []byte
	)
	err := row.Scan(&al.ID, &al.Title, &al.Message, &typ, &priority, &target,
		&al.SendNow, &al.ScheduleAt, &al.SentAt, &al.CreatedBy, &al.CreatedAt)
	if err != nil {
		return alert.Alert{}, err
	}
	al.Type = alert.Type(typ)
	al.Priority = alert.Priority(priority)
	al.Audience = audience.Parse(target)
	return al, nil
}
