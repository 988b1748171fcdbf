// Package memory is an in-process implementation of every store the service
// needs. It is used in development and tests.
//
// A single mutex guards the whole dataset. WithinTx holds it for the full
// unit of work and applies its writes to a private copy that replaces the
// live data only on success, so transactions are serial and all-or-nothing.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/dmitrymomot/donoralert/pkg/clock"
	"github.com/dmitrymomot/donoralert/svc/alert"
	"github.com/dmitrymomot/donoralert/svc/donor"
	"github.com/dmitrymomot/donoralert/svc/notification"
)

// InsertHook runs before every notification batch insert. A non-nil error
// aborts the insert. Used to inject failures.
type InsertHook func(batch []notification.Notification) error

type state struct {
	profiles      []donor.Profile
	alerts        map[uuid.UUID]alert.Alert
	alertOrder    []uuid.UUID
	notifications []notification.Notification
}

func (s *state) clone() *state {
	return &state{
		profiles:      slices.Clone(s.profiles),
		alerts:        maps.Clone(s.alerts),
		alertOrder:    slices.Clone(s.alertOrder),
		notifications: slices.Clone(s.notifications),
	}
}

// access runs fn against a state. Outside a transaction it takes the lock;
// inside, the lock is already held by WithinTx.
type access func(fn func(*state) error) error

// DB holds all data.
type DB struct {
	mu    sync.Mutex
	st    *state
	hook  InsertHook
	clock clock.Clock
}

type Option func(*DB)

func WithInsertHook(h InsertHook) Option {
	return func(db *DB) {
		db.hook = h
	}
}

// WithClock sets the time source for profile timestamps.
func WithClock(c clock.Clock) Option {
	return func(db *DB) {
		db.clock = c
	}
}

func New(opts ...Option) *DB {
	db := &DB{
		st:    &state{alerts: make(map[uuid.UUID]alert.Alert)},
		clock: clock.System(),
	}
	for _, opt := range opts {
		opt(db)
	}
	return db
}

// SetInsertHook replaces the insert hook at runtime.
func (db *DB) SetInsertHook(h InsertHook) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.hook = h
}

func (db *DB) locked(fn func(*state) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return fn(db.st)
}

func (db *DB) Donors() *Donors {
	return &Donors{access: db.locked, now: db.clock.Now}
}

func (db *DB) Alerts() *Alerts {
	return &Alerts{access: db.locked}
}

func (db *DB) Notifications() *Notifications {
	return &Notifications{access: db.locked, hook: db.currentHook}
}

func (db *DB) currentHook() InsertHook {
	return db.hook
}

// WithinTx implements alert.Transactor.
func (db *DB) WithinTx(ctx context.Context, fn func(ctx context.Context, tx alert.Tx) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	work := db.st.clone()
	inTx := func(fn func(*state) error) error { return fn(work) }
	hook := db.hook

	tx := txView{
		alerts:        &Alerts{access: inTx},
		directory:     &Donors{access: inTx, now: db.clock.Now},
		notifications: &Notifications{access: inTx, hook: func() InsertHook { return hook }},
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	db.st = work
	return nil
}

type txView struct {
	alerts        *Alerts
	directory     *Donors
	notifications *Notifications
}

func (t txView) Alerts() alert.Store                       { return t.alerts }
func (t txView) Directory() donor.Directory                { return t.directory }
func (t txView) Notifications() notification.BatchInserter { return t.notifications }
