package events

import (
	"context"

	"github.com/dmitrymomot/donoralert/pkg/audit"
	"github.com/dmitrymomot/donoralert/svc/alert"
)

// Audit actions recorded for alerts.
const (
	ActionAlertCreated      = "alert.created"
	ActionAlertSent         = "alert.sent"
	ActionAlertFanOutFailed = "alert.fan_out_failed"
)

// AuditPublisher records alert milestones in the audit trail. The failed
// fan-out record is what an operator uses to find alerts needing a resend.
type AuditPublisher struct {
	log *audit.Logger
}

func NewAuditPublisher(log *audit.Logger) *AuditPublisher {
	if log == nil {
		panic("events: audit logger cannot be nil")
	}
	return &AuditPublisher{log: log}
}

func alertOptions(a alert.Alert) []audit.EventOption {
	return []audit.EventOption{
		audit.WithResource("alert", a.ID.String()),
		audit.WithUserID(a.CreatedBy.String()),
		audit.WithMetadata("alert_type", string(a.Type)),
		audit.WithMetadata("priority", string(a.Priority)),
	}
}

func (p *AuditPublisher) AlertCreated(ctx context.Context, a alert.Alert) error {
	return p.log.Log(ctx, ActionAlertCreated, alertOptions(a)...)
}

func (p *AuditPublisher) AlertSent(ctx context.Context, a alert.Alert, recipients int) error {
	opts := append(alertOptions(a), audit.WithMetadata("recipients", recipients))
	return p.log.Log(ctx, ActionAlertSent, opts...)
}

func (p *AuditPublisher) FanOutFailed(ctx context.Context, a alert.Alert, cause error) error {
	return p.log.LogError(ctx, ActionAlertFanOutFailed, cause, alertOptions(a)...)
}
