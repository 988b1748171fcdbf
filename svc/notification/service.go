package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/donoralert/pkg/clock"
	"github.com/dmitrymomot/donoralert/pkg/logger"
)

// DefaultRetention is how long notifications are kept before cleanup.
const DefaultRetention = 30 * 24 * time.Hour

// Service runs inbox operations on behalf of a recipient and the periodic
// retention cleanup.
type Service struct {
	store     Store
	clock     clock.Clock
	logger    *slog.Logger
	retention time.Duration
}

type ServiceOption func(*Service)

func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithClock(c clock.Clock) ServiceOption {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithRetention overrides DefaultRetention. Non-positive values are ignored.
func WithRetention(d time.Duration) ServiceOption {
	return func(s *Service) {
		if d > 0 {
			s.retention = d
		}
	}
}

func NewService(store Store, opts ...ServiceOption) *Service {
	if store == nil {
		panic("notification: store cannot be nil")
	}
	s := &Service{
		store:     store,
		clock:     clock.System(),
		logger:    slog.Default(),
		retention: DefaultRetention,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) List(ctx context.Context, userID uuid.UUID, opts ListOptions) ([]Notification, error) {
	if opts.Type != nil && !opts.Type.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidType, *opts.Type)
	}
	if opts.Limit < 0 {
		opts.Limit = 0
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}
	return s.store.List(ctx, userID, opts)
}

func (s *Service) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.store.CountUnread(ctx, userID)
}

func (s *Service) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	return s.store.MarkRead(ctx, userID, id, s.clock.Now())
}

// MarkAllRead marks every unread notification of the user and returns how many changed.
func (s *Service) MarkAllRead(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.store.MarkAllRead(ctx, userID, s.clock.Now())
}

func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return s.store.Delete(ctx, userID, id)
}

// Cleanup deletes notifications older than the retention horizon.
func (s *Service) Cleanup(ctx context.Context) error {
	cutoff := s.clock.Now().Add(-s.retention)
	n, err := s.store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("delete notifications older than %s: %w", cutoff.Format(time.RFC3339), err)
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "old notifications removed",
		logger.Component("notification"),
		logger.Count(n),
		slog.Time("cutoff", cutoff),
	)
	return nil
}
