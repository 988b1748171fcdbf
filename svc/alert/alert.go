// Package alert owns the alert lifecycle: creation, at-most-once sending and
// the fan-out of one notification per matching donor.
package alert

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/donoralert/svc/audience"
)

// Type is the kind of alert.
type Type string

const (
	TypeUrgentRequest       Type = "urgent_request"
	TypeGeneralAnnouncement Type = "general_announcement"
	TypeDonationDrive       Type = "donation_drive"
)

func (t Type) Valid() bool {
	switch t {
	case TypeUrgentRequest, TypeGeneralAnnouncement, TypeDonationDrive:
		return true
	}
	return false
}

// Priority orders alerts by urgency.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// Alert is a message addressed to a donor audience. Once SentAt is set the
// alert is immutable.
type Alert struct {
	ID         uuid.UUID          `json:"id"`
	Title      string             `json:"title"`
	Message    string             `json:"message"`
	Type       Type               `json:"alert_type"`
	Priority   Priority           `json:"priority"`
	Audience   *audience.Audience `json:"target_audience,omitempty"`
	SendNow    bool               `json:"send_now"`
	ScheduleAt *time.Time         `json:"schedule_at,omitempty"`
	SentAt     *time.Time         `json:"sent_at,omitempty"`
	CreatedBy  uuid.UUID          `json:"created_by"`
	CreatedAt  time.Time          `json:"created_at"`
}

// State derives the lifecycle state from the persisted fields.
func (a Alert) State() State {
	switch {
	case a.SentAt != nil:
		return StateSent
	case a.ScheduleAt != nil:
		return StateScheduled
	default:
		return StateDraft
	}
}

// Due reports whether a scheduled alert should be sent at now.
func (a Alert) Due(now time.Time) bool {
	return a.SentAt == nil && a.ScheduleAt != nil && !a.ScheduleAt.After(now)
}

// Draft is the input for creating an alert.
type Draft struct {
	Title      string             `json:"title"`
	Message    string             `json:"message"`
	Type       Type               `json:"alert_type"`
	Priority   Priority           `json:"priority"`
	Audience   *audience.Audience `json:"target_audience"`
	SendNow    *bool              `json:"send_now"`
	ScheduleAt *time.Time         `json:"schedule_at"`
	CreatedBy  uuid.UUID          `json:"-"`
}

// SendsNow reports the effective send_now flag, which defaults to true.
func (d Draft) SendsNow() bool {
	return d.SendNow == nil || *d.SendNow
}

func (d Draft) validate() error {
	var problems []string
	if strings.TrimSpace(d.Title) == "" {
		problems = append(problems, "title is required")
	}
	if !d.Type.Valid() {
		problems = append(problems, "unknown alert type "+string(d.Type))
	}
	if d.Priority != "" && !d.Priority.Valid() {
		problems = append(problems, "unknown priority "+string(d.Priority))
	}
	if len(problems) > 0 {
		return newInvalidError(problems)
	}
	return nil
}

// ListOptions pages through alerts, newest first.
type ListOptions struct {
	Limit  int
	Offset int
}

// Sent is the outcome of a successful send.
type Sent struct {
	Alert      Alert `json:"alert"`
	Recipients int   `json:"recipients"`
}
