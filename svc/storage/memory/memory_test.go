package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/donoralert/pkg/clock"
	"github.com/dmitrymomot/donoralert/svc/alert"
	"github.com/dmitrymomot/donoralert/svc/donor"
	"github.com/dmitrymomot/donoralert/svc/notification"
	"github.com/dmitrymomot/donoralert/svc/storage/memory"
)

var now = time.Date(2026, 4, 2, 9, 30, 0, 0, time.UTC)

func TestWithinTxCommitsOrDiscards(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("error discards every write", func(t *testing.T) {
		t.Parallel()
		db := memory.New()
		a := alert.Alert{ID: uuid.New(), Title: "t", CreatedAt: now}
		boom := errors.New("boom")

		err := db.WithinTx(ctx, func(ctx context.Context, tx alert.Tx) error {
			require.NoError(t, tx.Alerts().Create(ctx, a))
			ok, err := tx.Alerts().MarkSent(ctx, a.ID, now)
			require.NoError(t, err)
			require.True(t, ok)
			_, err = tx.Notifications().BatchInsert(ctx, []notification.Notification{{ID: uuid.New(), AlertID: &a.ID}})
			require.NoError(t, err)
			return boom
		})
		require.ErrorIs(t, err, boom)

		_, err = db.Alerts().Get(ctx, a.ID)
		assert.ErrorIs(t, err, alert.ErrNotFound)
		n, err := db.Notifications().CountByAlert(ctx, a.ID)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("success publishes writes", func(t *testing.T) {
		t.Parallel()
		db := memory.New()
		a := alert.Alert{ID: uuid.New(), Title: "t", CreatedAt: now}

		err := db.WithinTx(ctx, func(ctx context.Context, tx alert.Tx) error {
			if err := tx.Alerts().Create(ctx, a); err != nil {
				return err
			}
			_, err := tx.Notifications().BatchInsert(ctx, []notification.Notification{{ID: uuid.New(), AlertID: &a.ID}})
			return err
		})
		require.NoError(t, err)

		got, err := db.Alerts().Get(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, "t", got.Title)
		n, err := db.Notifications().CountByAlert(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("insert hook failure surfaces", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("disk full")
		db := memory.New(memory.WithInsertHook(func([]notification.Notification) error { return boom }))

		err := db.WithinTx(ctx, func(ctx context.Context, tx alert.Tx) error {
			_, err := tx.Notifications().BatchInsert(ctx, []notification.Notification{{ID: uuid.New()}})
			return err
		})
		assert.ErrorIs(t, err, boom)
	})

	t.Run("cancelled context never runs fn", func(t *testing.T) {
		t.Parallel()
		db := memory.New()
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		called := false
		err := db.WithinTx(cctx, func(context.Context, alert.Tx) error {
			called = true
			return nil
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, called)
	})
}

func TestAlertsMarkSentOnce(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := memory.New()
	a := alert.Alert{ID: uuid.New(), CreatedAt: now}
	require.NoError(t, db.Alerts().Create(ctx, a))

	ok, err := db.Alerts().MarkSent(ctx, a.ID, now)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = db.Alerts().MarkSent(ctx, a.ID, now.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := db.Alerts().Get(ctx, a.ID)
	require.NoError(t, err)
	require.NotNil(t, got.SentAt)
	assert.Equal(t, now, *got.SentAt)

	ok, err = db.Alerts().MarkSent(ctx, uuid.New(), now)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAlertsListAndDue(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := memory.New()

	past := now.Add(-time.Hour)
	earlier := now.Add(-2 * time.Hour)
	future := now.Add(time.Hour)
	sentAt := now.Add(-time.Minute)

	fixtures := []alert.Alert{
		{ID: uuid.New(), Title: "draft", CreatedAt: now.Add(-4 * time.Minute)},
		{ID: uuid.New(), Title: "due-late", ScheduleAt: &past, CreatedAt: now.Add(-3 * time.Minute)},
		{ID: uuid.New(), Title: "due-early", ScheduleAt: &earlier, CreatedAt: now.Add(-2 * time.Minute)},
		{ID: uuid.New(), Title: "future", ScheduleAt: &future, CreatedAt: now.Add(-time.Minute)},
		{ID: uuid.New(), Title: "sent", ScheduleAt: &past, SentAt: &sentAt, CreatedAt: now},
	}
	for _, a := range fixtures {
		require.NoError(t, db.Alerts().Create(ctx, a))
	}

	list, err := db.Alerts().List(ctx, alert.ListOptions{Limit: 2})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "sent", list[0].Title)
	assert.Equal(t, "future", list[1].Title)

	due, err := db.Alerts().ListDue(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, "due-early", due[0].Title)
	assert.Equal(t, "due-late", due[1].Title)

	due, err = db.Alerts().ListDue(ctx, now, 1)
	require.NoError(t, err)
	assert.Len(t, due, 1)
}

func TestDonorsRegistry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	mc := clock.NewMock(now)
	db := memory.New(memory.WithClock(mc))
	reg := db.Donors()
	userID := uuid.New()

	p, err := reg.Upsert(ctx, donor.Profile{UserID: userID, BloodType: donor.ONegative, Municipality: "Evora", Availability: donor.Available})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, p.ID)
	assert.Equal(t, now, p.CreatedAt)

	mc.Advance(time.Hour)
	updated, err := reg.Upsert(ctx, donor.Profile{UserID: userID, BloodType: donor.ONegative, Municipality: "Faro", Availability: donor.Available})
	require.NoError(t, err)
	assert.Equal(t, p.ID, updated.ID)
	assert.Equal(t, now, updated.CreatedAt)
	assert.Equal(t, now.Add(time.Hour), updated.UpdatedAt)

	require.NoError(t, reg.SetAvailability(ctx, userID, donor.RecentlyDonated))
	got, err := reg.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, donor.RecentlyDonated, got.Availability)
	assert.Equal(t, "Faro", got.Municipality)

	assert.ErrorIs(t, reg.SetAvailability(ctx, uuid.New(), donor.Available), donor.ErrProfileNotFound)
	assert.ErrorIs(t, reg.SetAvailability(ctx, userID, "asleep"), donor.ErrInvalidAvailability)
	_, err = reg.Upsert(ctx, donor.Profile{UserID: uuid.New(), BloodType: "X", Availability: donor.Available})
	assert.ErrorIs(t, err, donor.ErrInvalidBloodType)

	avail := donor.RecentlyDonated
	res, err := reg.Query(ctx, donor.Filter{Availability: &avail})
	require.NoError(t, err)
	assert.Len(t, res, 1)
}

func TestNotificationsInbox(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := memory.New()
	store := db.Notifications()

	owner, other := uuid.New(), uuid.New()
	first := notification.Notification{ID: uuid.New(), UserID: owner, Type: notification.TypeAlert, CreatedAt: now.Add(-40 * 24 * time.Hour)}
	second := notification.Notification{ID: uuid.New(), UserID: owner, Type: notification.TypeSystem, CreatedAt: now}
	foreign := notification.Notification{ID: uuid.New(), UserID: other, Type: notification.TypeAlert, CreatedAt: now}

	n, err := store.BatchInsert(ctx, []notification.Notification{first, second, foreign})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	list, err := store.List(ctx, owner, notification.ListOptions{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)

	typ := notification.TypeAlert
	list, err = store.List(ctx, owner, notification.ListOptions{Type: &typ})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, first.ID, list[0].ID)

	assert.ErrorIs(t, store.MarkRead(ctx, owner, foreign.ID, now), notification.ErrNotFound)
	require.NoError(t, store.MarkRead(ctx, owner, first.ID, now))

	unread, err := store.CountUnread(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 1, unread)

	changed, err := store.MarkAllRead(ctx, owner, now)
	require.NoError(t, err)
	assert.Equal(t, 1, changed)

	read := true
	list, err = store.List(ctx, owner, notification.ListOptions{IsRead: &read})
	require.NoError(t, err)
	assert.Len(t, list, 2)
	require.NotNil(t, list[0].ReadAt)

	assert.ErrorIs(t, store.Delete(ctx, owner, foreign.ID), notification.ErrNotFound)
	require.NoError(t, store.Delete(ctx, other, foreign.ID))

	removed, err := store.DeleteOlderThan(ctx, now.Add(-30*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	list, err = store.List(ctx, owner, notification.ListOptions{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, second.ID, list[0].ID)
}
