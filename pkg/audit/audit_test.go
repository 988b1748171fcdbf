package audit_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/donoralert/pkg/audit"
)

type ctxKey struct{}

func TestLogger(t *testing.T) {
	t.Parallel()

	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("log stores success event with context user", func(t *testing.T) {
		t.Parallel()
		storage := audit.NewMemoryStorage()
		l := audit.NewLogger(storage,
			audit.WithNow(func() time.Time { return fixed }),
			audit.WithUserIDExtractor(func(ctx context.Context) (string, bool) {
				v, ok := ctx.Value(ctxKey{}).(string)
				return v, ok
			}),
		)

		ctx := context.WithValue(context.Background(), ctxKey{}, "admin-1")
		require.NoError(t, l.Log(ctx, "alert.created", audit.WithResource("alert", "a1"), audit.WithMetadata("priority", "high")))

		events, err := storage.Query(context.Background(), audit.Criteria{Action: "alert.created"})
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, "admin-1", events[0].UserID)
		assert.Equal(t, audit.ResultSuccess, events[0].Result)
		assert.Equal(t, "a1", events[0].ResourceID)
		assert.Equal(t, "high", events[0].Metadata["priority"])
		assert.Equal(t, fixed, events[0].CreatedAt)
	})

	t.Run("log error keeps cause", func(t *testing.T) {
		t.Parallel()
		storage := audit.NewMemoryStorage()
		l := audit.NewLogger(storage)

		require.NoError(t, l.LogError(context.Background(), "alert.fan_out_failed", errors.New("boom")))

		events, err := storage.Query(context.Background(), audit.Criteria{Result: audit.ResultError})
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, "boom", events[0].Error)
	})

	t.Run("empty action is rejected", func(t *testing.T) {
		t.Parallel()
		l := audit.NewLogger(audit.NewMemoryStorage())
		err := l.Log(context.Background(), "")
		assert.ErrorIs(t, err, audit.ErrEventValidation)
	})

	t.Run("nil storage panics", func(t *testing.T) {
		t.Parallel()
		assert.Panics(t, func() { audit.NewLogger(nil) })
	})
}

func TestMemoryStorageQuery(t *testing.T) {
	t.Parallel()

	storage := audit.NewMemoryStorage()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range 5 {
		require.NoError(t, storage.Store(ctx, audit.Event{
			ID:        string(rune('a' + i)),
			Action:    "alert.sent",
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	events, err := storage.Query(ctx, audit.Criteria{Action: "alert.sent", Limit: 2})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "e", events[0].ID)
	assert.Equal(t, "d", events[1].ID)

	events, err = storage.Query(ctx, audit.Criteria{Since: base.Add(3 * time.Hour)})
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestAsyncWriter(t *testing.T) {
	t.Parallel()

	storage := audit.NewMemoryStorage()
	w, closeFn := audit.NewAsyncWriter(storage, audit.AsyncOptions{BatchSize: 2, BatchTimeout: 10 * time.Millisecond})

	ctx := context.Background()
	for range 3 {
		require.NoError(t, w.Store(ctx, audit.Event{ID: "x", Action: "alert.sent"}))
	}
	require.NoError(t, closeFn(ctx))

	events, err := w.Query(ctx, audit.Criteria{})
	require.NoError(t, err)
	assert.Len(t, events, 3)

	err = w.Store(ctx, audit.Event{Action: "late"})
	assert.ErrorIs(t, err, audit.ErrStorageNotAvailable)
}
