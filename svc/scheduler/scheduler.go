// Package scheduler runs named periodic jobs on a fixed check interval.
//
// Every tick each job whose schedule has come due is run once, in
// registration order. Due times follow the schedule's own slots, so a job on
// a one-minute schedule runs once per minute even when the check ticker wakes
// up a little early or late. A job more than a full period behind skips the
// missed slots and re-anchors on the current time. A failing or panicking job is logged and retried on its
// next due tick; it never stops the loop or the other jobs. With a Locker,
// a job is skipped on a tick where another instance holds its lock.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/donoralert/pkg/clock"
	"github.com/dmitrymomot/donoralert/pkg/logger"
)

// JobFunc is the work done by a job.
type JobFunc func(ctx context.Context) error

type job struct {
	name     string
	schedule Schedule
	fn       JobFunc
	slot     *time.Time // last slot served; nil until the first run
}

// Scheduler manages periodic jobs.
type Scheduler struct {
	mu       sync.Mutex
	jobs     []*job
	interval time.Duration
	clock    clock.Clock
	logger   *slog.Logger
	locker   Locker
	lockTTL  time.Duration
}

type Option func(*Scheduler)

// WithCheckInterval sets how often due jobs are looked for. Defaults to a minute.
func WithCheckInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithClock(c clock.Clock) Option {
	return func(s *Scheduler) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLocker coordinates several scheduler instances. ttl bounds how long a
// crashed holder can block others; zero means the check interval.
func WithLocker(l Locker, ttl time.Duration) Option {
	return func(s *Scheduler) {
		s.locker = l
		s.lockTTL = ttl
	}
}

func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		interval: time.Minute,
		clock:    clock.System(),
		logger:   slog.Default(),
		locker:   noopLocker{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.lockTTL <= 0 {
		s.lockTTL = s.interval
	}
	return s
}

// AddJob registers a periodic job.
func (s *Scheduler) AddJob(name string, schedule Schedule, fn JobFunc) error {
	if name == "" || schedule == nil || fn == nil {
		return ErrInvalidJob
	}
	if v, ok := schedule.(interface{ validate() error }); ok {
		if err := v.validate(); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, j := range s.jobs {
		if j.name == name {
			return fmt.Errorf("%w: %s", ErrJobAlreadyRegistered, name)
		}
	}
	s.jobs = append(s.jobs, &job{name: name, schedule: schedule, fn: fn})

	s.logger.Info("registered periodic job",
		logger.Job(name),
		slog.String("schedule", schedule.String()))
	return nil
}

// Jobs returns registered job names in registration order.
func (s *Scheduler) Jobs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.jobs))
	for _, j := range s.jobs {
		names = append(names, j.name)
	}
	return names
}

// Start checks for due jobs immediately and then on every tick until ctx is done.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	count := len(s.jobs)
	s.mu.Unlock()
	if count == 0 {
		return ErrNotConfigured
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.RunDue(ctx)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler shutting down")
			return ctx.Err()
		case <-ticker.C:
			s.RunDue(ctx)
		}
	}
}

// RunDue runs every job that is due at the current clock time and returns
// how many ran.
func (s *Scheduler) RunDue(ctx context.Context) int {
	s.mu.Lock()
	jobs := make([]*job, len(s.jobs))
	copy(jobs, s.jobs)
	s.mu.Unlock()

	ran := 0
	for _, j := range jobs {
		if ctx.Err() != nil {
			break
		}
		now := s.clock.Now()
		slot, ok := s.due(j, now)
		if !ok {
			continue
		}
		if s.runLocked(ctx, j) {
			ran++
		}
		s.advance(j, slot, now)
	}
	return ran
}

// slack absorbs check ticks that wake up slightly before a slot.
func (s *Scheduler) slack() time.Duration {
	return s.interval / 10
}

// due reports whether j has a slot at or before now+slack, and returns it.
func (s *Scheduler) due(j *job, now time.Time) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if j.slot == nil {
		return now, true
	}
	next := j.schedule.Next(*j.slot)
	return next, !next.After(now.Add(s.slack()))
}

func (s *Scheduler) advance(j *job, slot, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !j.schedule.Next(slot).After(now) {
		slot = now
	}
	j.slot = &slot
}

func (s *Scheduler) runLocked(ctx context.Context, j *job) bool {
	release, ok, err := s.locker.TryLock(ctx, j.name, s.lockTTL)
	if err != nil {
		s.logger.LogAttrs(ctx, slog.LevelError, "failed to acquire job lock",
			logger.Job(j.name),
			logger.Error(err))
		return false
	}
	if !ok {
		s.logger.LogAttrs(ctx, slog.LevelDebug, "job locked by another instance", logger.Job(j.name))
		return false
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			s.logger.LogAttrs(ctx, slog.LevelWarn, "failed to release job lock",
				logger.Job(j.name),
				logger.Error(err))
		}
	}()

	started := s.clock.Now()
	if err := s.run(ctx, j); err != nil {
		s.logger.LogAttrs(ctx, slog.LevelError, "periodic job failed",
			logger.Job(j.name),
			logger.Error(err))
		return true
	}
	s.logger.LogAttrs(ctx, slog.LevelDebug, "periodic job finished",
		logger.Job(j.name),
		logger.Duration(s.clock.Now().Sub(started)))
	return true
}

func (s *Scheduler) run(ctx context.Context, j *job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrJobPanicked, r)
		}
	}()
	return j.fn(ctx)
}
