package alert

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/google/uuid"

	"github.com/dmitrymomot/donoralert/pkg/clock"
	"github.com/dmitrymomot/donoralert/pkg/logger"
	"github.com/dmitrymomot/donoralert/svc/notification"
)

// Service creates and sends alerts.
type Service struct {
	store     Store
	tx        Transactor
	clock     clock.Clock
	logger    *slog.Logger
	publisher Publisher
	deliverer notification.Deliverer
	cfg       Config
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

func WithPublisher(p Publisher) ServiceOption {
	return func(s *Service) {
		if p != nil {
			s.publisher = p
		}
	}
}

// WithDeliverer sets the real-time channel used after a send commits.
func WithDeliverer(d notification.Deliverer) ServiceOption {
	return func(s *Service) {
		if d != nil {
			s.deliverer = d
		}
	}
}

func WithConfig(cfg Config) ServiceOption {
	return func(s *Service) {
		s.cfg = cfg.withDefaults()
	}
}

func NewService(store Store, tx Transactor, opts ...ServiceOption) *Service {
	if store == nil || tx == nil {
		panic("alert: store and transactor are required")
	}
	s := &Service{
		store:     store,
		tx:        tx,
		clock:     clock.System(),
		logger:    slog.Default(),
		publisher: NopPublisher{},
		deliverer: notification.NoOpDeliverer{},
		cfg:       Config{FanOutRetries: 3}.withDefaults(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config returns the effective configuration.
func (s *Service) Config() Config {
	return s.cfg
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (Alert, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, opts ListOptions) ([]Alert, error) {
	opts.Limit = max(opts.Limit, 0)
	opts.Offset = max(opts.Offset, 0)
	return s.store.List(ctx, opts)
}

// Create stores a new alert. When the draft sends now, the insert, the
// sent_at stamp and every notification commit together. If that keeps
// failing the alert is stored unsent with its schedule time set to now, so
// the due scan or a manual trigger can send it later, and ErrPartialFanOut
// is returned alongside it.
func (s *Service) Create(ctx context.Context, d Draft) (Sent, error) {
	if err := d.validate(); err != nil {
		return Sent{}, err
	}
	state, err := initialState(ctx, d)
	if err != nil {
		return Sent{}, err
	}

	a := Alert{
		ID:         uuid.New(),
		Title:      d.Title,
		Message:    d.Message,
		Type:       d.Type,
		Priority:   cmp.Or(d.Priority, PriorityMedium),
		Audience:   d.Audience,
		SendNow:    d.SendsNow(),
		ScheduleAt: d.ScheduleAt,
		CreatedBy:  d.CreatedBy,
		CreatedAt:  s.clock.Now(),
	}
	if a.Audience.IsBroadcast() {
		a.Audience = nil
	}

	if state != StateSent {
		if err := s.store.Create(ctx, a); err != nil {
			return Sent{}, fmt.Errorf("create alert: %w", err)
		}
		s.created(ctx, a)
		return Sent{Alert: a}, nil
	}

	sent, batch, err := s.withRetry(ctx, a, func(ctx context.Context) (Sent, []notification.Notification, error) {
		return s.createAndSend(ctx, a)
	})
	if err != nil {
		if !IsRetryable(err) {
			return Sent{}, err
		}
		// A commit whose acknowledgement was lost leaves the alert sent.
		if got, gerr := s.store.Get(ctx, a.ID); gerr == nil {
			return s.recoverCommitted(ctx, got, err)
		}
		// Stamped so the due scan picks it up once the failure clears.
		now := s.clock.Now()
		a.ScheduleAt = &now
		if cerr := s.store.Create(ctx, a); cerr != nil {
			s.fanOutFailed(ctx, a, err)
			return Sent{}, errors.Join(err, fmt.Errorf("create unsent alert: %w", cerr))
		}
		s.created(ctx, a)
		s.fanOutFailed(ctx, a, err)
		return Sent{Alert: a}, err
	}

	s.created(ctx, sent.Alert)
	s.sent(ctx, sent, batch)
	return sent, nil
}

// recoverCommitted settles a send-now whose transaction committed even though
// the caller saw an error.
func (s *Service) recoverCommitted(ctx context.Context, a Alert, cause error) (Sent, error) {
	if a.SentAt == nil {
		s.fanOutFailed(ctx, a, cause)
		return Sent{Alert: a}, cause
	}
	sent := Sent{Alert: a}
	if c, ok := s.store.(RecipientCounter); ok {
		n, err := c.CountRecipients(ctx, a.ID)
		if err != nil {
			s.logger.LogAttrs(ctx, slog.LevelWarn, "count recovered alert recipients",
				logger.AlertID(a.ID),
				logger.Error(err),
			)
		}
		sent.Recipients = n
	}
	s.logger.LogAttrs(ctx, slog.LevelWarn, "send now committed despite error",
		logger.AlertID(a.ID),
		logger.Error(cause),
	)
	s.created(ctx, a)
	s.sent(ctx, sent, nil)
	return sent, nil
}

// Trigger sends an existing alert. Exactly one concurrent caller wins; the
// rest get ErrAlreadySent and write nothing.
func (s *Service) Trigger(ctx context.Context, id uuid.UUID) (Sent, error) {
	a, err := s.store.Get(ctx, id)
	if err != nil {
		return Sent{}, err
	}
	if err := canSend(ctx, a); err != nil {
		return Sent{}, err
	}

	sent, batch, err := s.withRetry(ctx, a, func(ctx context.Context) (Sent, []notification.Notification, error) {
		return s.send(ctx, id)
	})
	if err != nil {
		if IsRetryable(err) {
			s.fanOutFailed(ctx, a, err)
		}
		return Sent{}, err
	}

	s.sent(ctx, sent, batch)
	return sent, nil
}

// DueReport summarises one ProcessDue pass.
type DueReport struct {
	Due     int
	Sent    int
	Skipped int
	Failed  int
}

// ProcessDue triggers every alert whose schedule time has passed. Alerts are
// handled independently; one failure does not stop the rest.
func (s *Service) ProcessDue(ctx context.Context) (DueReport, error) {
	var report DueReport

	due, err := s.store.ListDue(ctx, s.clock.Now(), s.cfg.DueLimit)
	if err != nil {
		return report, fmt.Errorf("list due alerts: %w", err)
	}
	report.Due = len(due)

	for _, a := range due {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		_, err := s.Trigger(ctx, a.ID)
		switch {
		case err == nil:
			report.Sent++
		case errors.Is(err, ErrAlreadySent), errors.Is(err, ErrNotFound):
			report.Skipped++
			s.logger.LogAttrs(ctx, slog.LevelInfo, "scheduled alert skipped",
				logger.AlertID(a.ID),
				logger.Error(err),
			)
		default:
			report.Failed++
			if !IsRetryable(err) {
				s.logger.LogAttrs(ctx, slog.LevelError, "scheduled alert failed",
					logger.AlertID(a.ID),
					logger.Error(err),
				)
			}
		}
	}

	if report.Due > 0 {
		s.logger.LogAttrs(ctx, slog.LevelInfo, "processed due alerts",
			logger.Count(report.Due),
			slog.Int("sent", report.Sent),
			slog.Int("skipped", report.Skipped),
			slog.Int("failed", report.Failed),
		)
	}
	return report, nil
}

func (s *Service) send(ctx context.Context, id uuid.UUID) (Sent, []notification.Notification, error) {
	var (
		sent  Sent
		batch []notification.Notification
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		a, err := tx.Alerts().Get(ctx, id)
		if err != nil {
			return err
		}
		if err := canSend(ctx, a); err != nil {
			return err
		}
		batch, err = s.stampAndFanOut(ctx, tx, &a)
		if err != nil {
			return err
		}
		sent = Sent{Alert: a, Recipients: len(batch)}
		return nil
	})
	if err != nil {
		return Sent{}, nil, classify(ctx, err)
	}
	return sent, batch, nil
}

func (s *Service) createAndSend(ctx context.Context, a Alert) (Sent, []notification.Notification, error) {
	var (
		sent  Sent
		batch []notification.Notification
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		if err := tx.Alerts().Create(ctx, a); err != nil {
			return errors.Join(ErrPartialFanOut, fmt.Errorf("insert alert: %w", err))
		}
		var err error
		batch, err = s.stampAndFanOut(ctx, tx, &a)
		if err != nil {
			return err
		}
		sent = Sent{Alert: a, Recipients: len(batch)}
		return nil
	})
	if err != nil {
		return Sent{}, nil, classify(ctx, err)
	}
	return sent, batch, nil
}

// stampAndFanOut sets sent_at through the conditional update and, only if
// this caller won it, writes the notifications.
func (s *Service) stampAndFanOut(ctx context.Context, tx Tx, a *Alert) ([]notification.Notification, error) {
	now := s.clock.Now()
	ok, err := tx.Alerts().MarkSent(ctx, a.ID, now)
	if err != nil {
		return nil, errors.Join(ErrPartialFanOut, fmt.Errorf("mark sent: %w", err))
	}
	if !ok {
		return nil, ErrAlreadySent
	}
	a.SentAt = &now
	return FanOut(ctx, tx, *a, s.cfg.BatchSize)
}

// classify makes unexpected store failures (begin, commit, reads) retryable.
// A retry after an ambiguous commit is safe: the conditional sent_at update
// turns it into ErrAlreadySent.
func classify(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrAlreadySent), IsRetryable(err):
		return err
	case ctx.Err() != nil:
		return err
	}
	return errors.Join(ErrPartialFanOut, err)
}

func (s *Service) withRetry(
	ctx context.Context,
	a Alert,
	op func(context.Context) (Sent, []notification.Notification, error),
) (Sent, []notification.Notification, error) {
	var (
		sent    Sent
		batch   []notification.Notification
		lastErr error
	)
	err := retry.Do(
		func() error {
			sent, batch, lastErr = op(ctx)
			return lastErr
		},
		retry.Attempts(uint(s.cfg.FanOutRetries)+1),
		retry.Delay(s.cfg.RetryDelay),
		retry.MaxDelay(10*s.cfg.RetryDelay),
		retry.MaxJitter(max(s.cfg.RetryDelay/2, time.Millisecond)),
		retry.Context(ctx),
		retry.RetryIf(IsRetryable),
		retry.OnRetry(func(n uint, err error) {
			s.logger.LogAttrs(ctx, slog.LevelWarn, "retrying alert send",
				logger.AlertID(a.ID),
				logger.Attempt(n+1),
				logger.Error(err),
			)
		}),
	)
	if err == nil {
		return sent, batch, nil
	}
	if lastErr == nil {
		lastErr = err
	}
	return Sent{}, nil, lastErr
}

func (s *Service) created(ctx context.Context, a Alert) {
	s.logger.LogAttrs(ctx, slog.LevelInfo, "alert created",
		logger.AlertID(a.ID),
		slog.String("state", string(a.State())),
		slog.String("priority", string(a.Priority)),
	)
	if err := s.publisher.AlertCreated(ctx, a); err != nil {
		s.logger.LogAttrs(ctx, slog.LevelWarn, "failed to publish alert created",
			logger.AlertID(a.ID),
			logger.Error(err),
		)
	}
}

func (s *Service) sent(ctx context.Context, sent Sent, batch []notification.Notification) {
	s.logger.LogAttrs(ctx, slog.LevelInfo, "alert sent",
		logger.AlertID(sent.Alert.ID),
		logger.Count(sent.Recipients),
	)
	if err := s.publisher.AlertSent(ctx, sent.Alert, sent.Recipients); err != nil {
		s.logger.LogAttrs(ctx, slog.LevelWarn, "failed to publish alert sent",
			logger.AlertID(sent.Alert.ID),
			logger.Error(err),
		)
	}
	if len(batch) == 0 {
		return
	}
	if err := s.deliverer.DeliverBatch(ctx, batch); err != nil {
		s.logger.LogAttrs(ctx, slog.LevelWarn, "notifications stored but real-time delivery failed",
			logger.AlertID(sent.Alert.ID),
			logger.Count(len(batch)),
			logger.Error(err),
		)
	}
}

func (s *Service) fanOutFailed(ctx context.Context, a Alert, cause error) {
	s.logger.LogAttrs(ctx, slog.LevelError, "alert fan-out failed, alert left unsent",
		logger.AlertID(a.ID),
		logger.Attempt(uint(s.cfg.FanOutRetries)+1),
		logger.Error(cause),
	)
	if err := s.publisher.FanOutFailed(ctx, a, cause); err != nil {
		s.logger.LogAttrs(ctx, slog.LevelWarn, "failed to publish fan-out failure",
			logger.AlertID(a.ID),
			logger.Error(err),
		)
	}
}
