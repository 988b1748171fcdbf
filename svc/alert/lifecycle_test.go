package alert

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialState(t *testing.T) {
	t.Parallel()

	no := false
	at := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		draft Draft
		want  State
	}{
		{"send now defaults to true", Draft{}, StateSent},
		{"scheduled", Draft{SendNow: &no, ScheduleAt: &at}, StateScheduled},
		{"draft", Draft{SendNow: &no}, StateDraft},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := initialState(context.Background(), tt.draft)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCanSend(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	at := time.Now()

	assert.NoError(t, canSend(ctx, Alert{}))
	assert.NoError(t, canSend(ctx, Alert{ScheduleAt: &at}))
	assert.ErrorIs(t, canSend(ctx, Alert{SentAt: &at}), ErrAlreadySent)
	assert.True(t, lifecycle.Terminal(StateSent))
	assert.False(t, lifecycle.CanFire(ctx, StateSent, EventSchedule))
}

func TestDraftValidate(t *testing.T) {
	t.Parallel()

	err := Draft{Title: " ", Type: "weather", Priority: "urgent"}.validate()
	require.ErrorIs(t, err, ErrInvalidAlert)

	var invalid *InvalidError
	require.ErrorAs(t, err, &invalid)
	assert.Len(t, invalid.Problems, 3)

	assert.NoError(t, Draft{Title: "Need O-", Type: TypeUrgentRequest}.validate())
}

func TestAlertDue(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	before := now.Add(-time.Second)
	after := now.Add(time.Second)

	assert.False(t, Alert{}.Due(now))
	assert.True(t, Alert{ScheduleAt: &now}.Due(now))
	assert.True(t, Alert{ScheduleAt: &before}.Due(now))
	assert.False(t, Alert{ScheduleAt: &after}.Due(now))
	assert.False(t, Alert{ScheduleAt: &before, SentAt: &now}.Due(now))
}
