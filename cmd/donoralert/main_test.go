package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/donoralert/pkg/config"
	"github.com/dmitrymomot/donoralert/pkg/logger"
	"github.com/dmitrymomot/donoralert/svc/scheduler"
)

func TestRegisterJobs(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()
		s := scheduler.New(scheduler.WithLogger(logger.Discard()))
		cfg := JobsConfig{ScanInterval: time.Minute, CleanupHour: 3}
		require.NoError(t, registerJobs(s, cfg, nil, nil))
		assert.Equal(t, []string{"process-scheduled-alerts", "cleanup-old-notifications"}, s.Jobs())
	})

	t.Run("cleanup time out of range", func(t *testing.T) {
		t.Parallel()
		s := scheduler.New(scheduler.WithLogger(logger.Discard()))
		cfg := JobsConfig{ScanInterval: time.Minute, CleanupHour: 25}
		assert.ErrorIs(t, registerJobs(s, cfg, nil, nil), scheduler.ErrInvalidJob)
	})

	t.Run("zero scan interval", func(t *testing.T) {
		t.Parallel()
		s := scheduler.New(scheduler.WithLogger(logger.Discard()))
		assert.ErrorIs(t, registerJobs(s, JobsConfig{}, nil, nil), scheduler.ErrInvalidJob)
	})
}

func TestJobsConfigDefaults(t *testing.T) {
	var cfg JobsConfig
	require.NoError(t, config.Load(&cfg))

	assert.Equal(t, time.Minute, cfg.ScanInterval)
	assert.LessOrEqual(t, cfg.LockTTL, cfg.ScanInterval)
	assert.Equal(t, 3, cfg.CleanupHour)
	assert.Zero(t, cfg.CleanupMinute)
}
