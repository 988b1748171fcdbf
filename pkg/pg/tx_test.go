package pg_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/donoralert/pkg/pg"
)

// fakeTx records how the transaction was finished. Embedding pgx.Tx keeps
// the fake small; only Commit and Rollback are called by WithTx.
type fakeTx struct {
	pgx.Tx
	committed  bool
	rolledBack bool
}

func (f *fakeTx) Commit(context.Context) error   { f.committed = true; return nil }
func (f *fakeTx) Rollback(context.Context) error { f.rolledBack = true; return nil }

type fakeBeginner struct {
	tx  *fakeTx
	err error
}

func (b *fakeBeginner) BeginTx(context.Context, pgx.TxOptions) (pgx.Tx, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.tx, nil
}

func TestWithTx(t *testing.T) {
	t.Parallel()

	t.Run("commits on success", func(t *testing.T) {
		t.Parallel()
		b := &fakeBeginner{tx: &fakeTx{}}
		err := pg.WithTx(context.Background(), b, pgx.TxOptions{}, func(pgx.Tx) error { return nil })
		require.NoError(t, err)
		assert.True(t, b.tx.committed)
		assert.False(t, b.tx.rolledBack)
	})

	t.Run("rolls back on error", func(t *testing.T) {
		t.Parallel()
		b := &fakeBeginner{tx: &fakeTx{}}
		boom := errors.New("boom")
		err := pg.WithTx(context.Background(), b, pgx.TxOptions{}, func(pgx.Tx) error { return boom })
		assert.ErrorIs(t, err, boom)
		assert.False(t, b.tx.committed)
		assert.True(t, b.tx.rolledBack)
	})

	t.Run("rolls back and repanics", func(t *testing.T) {
		t.Parallel()
		b := &fakeBeginner{tx: &fakeTx{}}
		assert.Panics(t, func() {
			_ = pg.WithTx(context.Background(), b, pgx.TxOptions{}, func(pgx.Tx) error { panic("boom") })
		})
		assert.True(t, b.tx.rolledBack)
	})

	t.Run("begin failure", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("no conn")
		err := pg.WithTx(context.Background(), &fakeBeginner{err: boom}, pgx.TxOptions{}, func(pgx.Tx) error { return nil })
		assert.ErrorIs(t, err, boom)
	})
}
