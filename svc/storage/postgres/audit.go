package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/donoralert/pkg/audit"
)

var auditCopyColumns = []string{"id", "user_id", "action", "resource", "resource_id", "result", "error", "request_id", "metadata", "created_at"}

// AuditStorage implements audit.Storage over audit_events.
type AuditStorage struct {
	q querier
}

func (s *AuditStorage) Store(ctx context.Context, events ...audit.Event) error {
	if len(events) == 0 {
		return nil
	}
	rows := make([][]any, 0, len(events))
	for _, e := range events {
		var meta []byte
		if len(e.Metadata) > 0 {
			var err error
			if meta, err = json.Marshal(e.Metadata); err != nil {
				return fmt.Errorf("encode audit metadata: %w", err)
			}
		}
		id, err := uuid.Parse(e.ID)
		if err != nil {
			return fmt.Errorf("audit event id %q: %w", e.ID, err)
		}
		rows = append(rows, []any{id, e.UserID, e.Action, e.Resource, e.ResourceID,
			string(e.Result), e.Error, e.RequestID, meta, e.CreatedAt})
	}
	if _, err := s.q.CopyFrom(ctx, pgx.Identifier{"audit_events"}, auditCopyColumns, pgx.CopyFromRows(rows)); err != nil {
		return fmt.Errorf("store audit events: %w", err)
	}
	return nil
}

func auditQuery(c audit.Criteria) (string, []any) {
	var w where
	if c.Action != "" {
		w.add("action = $%d", c.Action)
	}
	if c.Resource != "" {
		w.add("resource = $%d", c.Resource)
	}
	if c.ResourceID != "" {
		w.add("resource_id = $%d", c.ResourceID)
	}
	if c.Result != "" {
		w.add("result = $%d", string(c.Result))
	}
	if !c.Since.IsZero() {
		w.add("created_at >= $%d", c.Since)
	}
	args := append(w.args, limitArg(c.Limit))
	sql := fmt.Sprintf("SELECT %s FROM audit_events%s ORDER BY created_at DESC LIMIT $%d",
		"id, user_id, action, resource, resource_id, result, error, request_id, metadata, created_at",
		w.String(), len(args))
	return sql, args
}

// Query returns matching events, newest first.
func (s *AuditStorage) Query(ctx context.Context, criteria audit.Criteria) ([]audit.Event, error) {
	sql, args := auditQuery(criteria)
	rows, err := s.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	events, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (audit.Event, error) {
		var (
			e      audit.Event
			id     string
			result string
			meta   []byte
		)
		if err := row.Scan(&id, &e.UserID, &e.Action, &e.Resource, &e.ResourceID,
			&result, &e.Error, &e.RequestID, &meta, &e.CreatedAt); err != nil {
			return e, err
		}
		e.ID = id
		e.Result = audit.Result(result)
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &e.Metadata); err != nil {
				return e, fmt.Errorf("decode audit metadata: %w", err)
			}
		}
		return e, nil
	})
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	return events, nil
}
