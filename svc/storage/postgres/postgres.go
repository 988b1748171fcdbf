// Package postgres implements the alert, donor, notification and audit stores
// on PostgreSQL through pgx.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/donoralert/pkg/clock"
	"github.com/dmitrymomot/donoralert/pkg/pg"
	"github.com/dmitrymomot/donoralert/svc/alert"
	"github.com/dmitrymomot/donoralert/svc/donor"
	"github.com/dmitrymomot/donoralert/svc/notification"
)

// querier is satisfied by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	CopyFrom(ctx context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error)
}

// DB is a connection pool able to start transactions.
type DB interface {
	querier
	pg.TxBeginner
}

// Store groups the table stores over one pool.
type Store struct {
	db        DB
	directory donor.Directory
	clock     clock.Clock
}

type Option func(*Store)

// WithDirectory resolves recipients from an external directory instead of
// the donor_profiles table. Reads from it are not part of the transaction.
func WithDirectory(d donor.Directory) Option {
	return func(s *Store) {
		s.directory = d
	}
}

func WithClock(c clock.Clock) Option {
	return func(s *Store) {
		if c != nil {
			s.clock = c
		}
	}
}

func New(db DB, opts ...Option) *Store {
	s := &Store{db: db, clock: clock.System()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Donors() *Donors               { return &Donors{q: s.db, clock: s.clock} }
func (s *Store) Alerts() *Alerts               { return &Alerts{q: s.db} }
func (s *Store) Notifications() *Notifications { return &Notifications{q: s.db} }
func (s *Store) Audit() *AuditStorage          { return &AuditStorage{q: s.db} }

// Directory returns the directory used for recipient resolution.
func (s *Store) Directory() donor.Directory {
	if s.directory != nil {
		return s.directory
	}
	return s.Donors()
}

// WithinTx implements alert.Transactor. READ COMMITTED is enough: the
// conditional sent_at update re-checks the row after waiting on its lock, and
// the recipient query is a single statement over one snapshot.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx alert.Tx) error) error {
	return pg.WithTx(ctx, s.db, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		view := txView{
			alerts:        &Alerts{q: tx},
			directory:     &Donors{q: tx, clock: s.clock},
			notifications: &Notifications{q: tx},
		}
		if s.directory != nil {
			view.directory = s.directory
		}
		return fn(ctx, view)
	})
}

type txView struct {
	alerts        *Alerts
	directory     donor.Directory
	notifications *Notifications
}

func (t txView) Alerts() alert.Store                       { return t.alerts }
func (t txView) Directory() donor.Directory                { return t.directory }
func (t txView) Notifications() notification.BatchInserter { return t.notifications }

// where accumulates positional conditions.
type where struct {
	conds []string
	args  []any
}

func (w *where) add(cond string, arg any) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, fmt.Sprintf(cond, len(w.args)))
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// limitArg maps a zero limit to NULL, which Postgres reads as no limit.
func limitArg(n int) any {
	if n <= 0 {
		return nil
	}
	return n
}
