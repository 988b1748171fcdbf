package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/donoralert/pkg/audit"
	"github.com/dmitrymomot/donoralert/pkg/clock"
	"github.com/dmitrymomot/donoralert/svc/alert"
	"github.com/dmitrymomot/donoralert/svc/events"
	"github.com/dmitrymomot/donoralert/svc/notification"
)

type published struct {
	channel string
	body    []byte
}

type fakeRedis struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (f *fakeRedis) record(ctx context.Context, channel string, message any) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	cmd := redis.NewIntCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	f.msgs = append(f.msgs, published{channel: channel, body: message.([]byte)})
	cmd.SetVal(1)
	return cmd
}

func (f *fakeRedis) Publish(ctx context.Context, channel string, message any) *redis.IntCmd {
	return f.record(ctx, channel, message)
}

func (f *fakeRedis) Pipelined(ctx context.Context, fn func(redis.Pipeliner) error) ([]redis.Cmder, error) {
	if err := fn(fakePipe{f: f}); err != nil {
		return nil, err
	}
	return nil, f.err
}

// fakePipe only supports Publish; any other call panics on the nil embedded interface.
type fakePipe struct {
	redis.Pipeliner
	f *fakeRedis
}

func (p fakePipe) Publish(ctx context.Context, channel string, message any) *redis.IntCmd {
	return p.f.record(ctx, channel, message)
}

var now = time.Date(2026, 8, 1, 15, 0, 0, 0, time.UTC)

func sampleAlert() alert.Alert {
	sent := now
	return alert.Alert{
		ID:        uuid.New(),
		Title:     "O- needed",
		Type:      alert.TypeUrgentRequest,
		Priority:  alert.PriorityCritical,
		SentAt:    &sent,
		CreatedBy: uuid.New(),
	}
}

func TestRedisPublisher(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("alert events go to their channels", func(t *testing.T) {
		t.Parallel()
		rc := &fakeRedis{}
		p := events.NewRedisPublisher(rc, events.WithRedisClock(clock.NewMock(now)))
		a := sampleAlert()

		require.NoError(t, p.AlertCreated(ctx, a))
		require.NoError(t, p.AlertSent(ctx, a, 42))
		require.NoError(t, p.FanOutFailed(ctx, a, errors.New("boom")))

		require.Len(t, rc.msgs, 3)
		assert.Equal(t, events.ChannelAlertCreated, rc.msgs[0].channel)
		assert.Equal(t, events.ChannelAlertSent, rc.msgs[1].channel)
		assert.Equal(t, events.ChannelAlertFanOutFailed, rc.msgs[2].channel)

		var sent events.AlertMessage
		require.NoError(t, json.Unmarshal(rc.msgs[1].body, &sent))
		assert.Equal(t, "alert.sent", sent.Event)
		assert.Equal(t, a.ID, sent.AlertID)
		assert.Equal(t, 42, sent.Recipients)
		assert.Equal(t, alert.PriorityCritical, sent.Priority)
		assert.True(t, now.Equal(sent.OccurredAt))

		var failed events.AlertMessage
		require.NoError(t, json.Unmarshal(rc.msgs[2].body, &failed))
		assert.Equal(t, "boom", failed.Error)
	})

	t.Run("publish error is returned", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("connection refused")
		p := events.NewRedisPublisher(&fakeRedis{err: boom})
		assert.ErrorIs(t, p.AlertCreated(ctx, sampleAlert()), boom)
	})

	t.Run("deliver batch targets each recipient", func(t *testing.T) {
		t.Parallel()
		rc := &fakeRedis{}
		p := events.NewRedisPublisher(rc)
		u1, u2 := uuid.New(), uuid.New()

		require.NoError(t, p.DeliverBatch(ctx, []notification.Notification{
			{ID: uuid.New(), UserID: u1, Type: notification.TypeAlert},
			{ID: uuid.New(), UserID: u2, Type: notification.TypeAlert},
		}))
		require.Len(t, rc.msgs, 2)
		assert.Equal(t, events.UserChannel(u1), rc.msgs[0].channel)
		assert.Equal(t, "notifications:"+u2.String(), rc.msgs[1].channel)

		require.NoError(t, p.DeliverBatch(ctx, nil))
		assert.Len(t, rc.msgs, 2)
	})
}

func TestAuditPublisher(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	storage := audit.NewMemoryStorage()
	p := events.NewAuditPublisher(audit.NewLogger(storage))
	a := sampleAlert()

	require.NoError(t, p.AlertCreated(ctx, a))
	require.NoError(t, p.AlertSent(ctx, a, 7))
	require.NoError(t, p.FanOutFailed(ctx, a, errors.New("deadlock")))

	failed, err := storage.Query(ctx, audit.Criteria{Action: events.ActionAlertFanOutFailed})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, audit.ResultError, failed[0].Result)
	assert.Equal(t, a.ID.String(), failed[0].ResourceID)
	assert.Equal(t, "deadlock", failed[0].Error)

	sent, err := storage.Query(ctx, audit.Criteria{Action: events.ActionAlertSent})
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.Equal(t, 7, sent[0].Metadata["recipients"])
	assert.Equal(t, a.CreatedBy.String(), sent[0].UserID)
}

type countingPublisher struct {
	alert.NopPublisher
	err   error
	calls int
}

func (c *countingPublisher) AlertSent(context.Context, alert.Alert, int) error {
	c.calls++
	return c.err
}

func TestMulti(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	first := &countingPublisher{err: boom}
	second := &countingPublisher{}

	err := events.Multi{first, second}.AlertSent(context.Background(), sampleAlert(), 1)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls)

	assert.NoError(t, events.Multi{first, second}.AlertCreated(context.Background(), sampleAlert()))
}
