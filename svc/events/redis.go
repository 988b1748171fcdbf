package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/donoralert/pkg/clock"
	"github.com/dmitrymomot/donoralert/svc/alert"
	"github.com/dmitrymomot/donoralert/svc/notification"
)

// Channel names.
const (
	ChannelAlertCreated      = "alerts.created"
	ChannelAlertSent         = "alerts.sent"
	ChannelAlertFanOutFailed = "alerts.fan_out_failed"
)

// UserChannel is the pub/sub channel a recipient's live notifications go to.
func UserChannel(userID uuid.UUID) string {
	return "notifications:" + userID.String()
}

// RedisClient is the subset of redis.UniversalClient used here.
type RedisClient interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
	Pipelined(ctx context.Context, fn func(redis.Pipeliner) error) ([]redis.Cmder, error)
}

// AlertMessage is the JSON body published on the alert channels.
type AlertMessage struct {
	Event      string         `json:"event"`
	AlertID    uuid.UUID      `json:"alert_id"`
	Title      string         `json:"title"`
	Type       alert.Type     `json:"alert_type"`
	Priority   alert.Priority `json:"priority"`
	Recipients int            `json:"recipients,omitempty"`
	SentAt     *time.Time     `json:"sent_at,omitempty"`
	Error      string         `json:"error,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// RedisPublisher implements alert.Publisher and notification.Deliverer.
type RedisPublisher struct {
	client RedisClient
	clock  clock.Clock
}

type RedisOption func(*RedisPublisher)

func WithRedisClock(c clock.Clock) RedisOption {
	return func(p *RedisPublisher) {
		if c != nil {
			p.clock = c
		}
	}
}

func NewRedisPublisher(client RedisClient, opts ...RedisOption) *RedisPublisher {
	p := &RedisPublisher{client: client, clock: clock.System()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *RedisPublisher) message(event string, a alert.Alert) AlertMessage {
	return AlertMessage{
		Event:      event,
		AlertID:    a.ID,
		Title:      a.Title,
		Type:       a.Type,
		Priority:   a.Priority,
		SentAt:     a.SentAt,
		OccurredAt: p.clock.Now(),
	}
}

func (p *RedisPublisher) publish(ctx context.Context, channel string, msg AlertMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode %s: %w", msg.Event, err)
	}
	if err := p.client.Publish(ctx, channel, body).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", channel, err)
	}
	return nil
}

func (p *RedisPublisher) AlertCreated(ctx context.Context, a alert.Alert) error {
	return p.publish(ctx, ChannelAlertCreated, p.message("alert.created", a))
}

func (p *RedisPublisher) AlertSent(ctx context.Context, a alert.Alert, recipients int) error {
	msg := p.message("alert.sent", a)
	msg.Recipients = recipients
	return p.publish(ctx, ChannelAlertSent, msg)
}

func (p *RedisPublisher) FanOutFailed(ctx context.Context, a alert.Alert, cause error) error {
	msg := p.message("alert.fan_out_failed", a)
	if cause != nil {
		msg.Error = cause.Error()
	}
	return p.publish(ctx, ChannelAlertFanOutFailed, msg)
}

// DeliverBatch publishes each notification on its recipient's channel in one pipeline.
func (p *RedisPublisher) DeliverBatch(ctx context.Context, batch []notification.Notification) error {
	if len(batch) == 0 {
		return nil
	}
	_, err := p.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, n := range batch {
			body, err := json.Marshal(n)
			if err != nil {
				return fmt.Errorf("encode notification %s: %w", n.ID, err)
			}
			pipe.Publish(ctx, UserChannel(n.UserID), body)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("deliver %d notifications: %w", len(batch), err)
	}
	return nil
}
