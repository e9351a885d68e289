package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectDriver(t *testing.T) {
	tests := []struct {
		url  string
		want Driver
	}{
		{"", DriverSQLite},
		{"postgres://planwise@localhost/planwise", DriverPostgres},
		{"postgresql://planwise@localhost/planwise", DriverPostgres},
		{"sqlite:///tmp/planwise.db", DriverSQLite},
		{"file:planwise.db", DriverSQLite},
		{":memory:", DriverSQLite},
		{"/var/lib/planwise.sqlite3", DriverSQLite},
		{"host=localhost dbname=planwise", DriverPostgres},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectDriver(tt.url))
		})
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "mysql"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported")
}

func TestIsNoRows(t *testing.T) {
	assert.True(t, IsNoRows(sql.ErrNoRows))
	assert.True(t, IsNoRows(pgx.ErrNoRows))
	assert.True(t, IsNoRows(fmt.Errorf("find link: %w", ErrNoRows)))
	assert.False(t, IsNoRows(errors.New("boom")))
	assert.False(t, IsNoRows(nil))
}

type fakeTx struct {
	Executor
	commits, rollbacks int
}

func (f *fakeTx) Commit(context.Context) error   { f.commits++; return nil }
func (f *fakeTx) Rollback(context.Context) error { f.rollbacks++; return nil }

type fakeConn struct {
	Executor
	tx *fakeTx
}

func (f *fakeConn) BeginTx(context.Context) (Transaction, error) { return f.tx, nil }
func (f *fakeConn) Ping(context.Context) error                   { return nil }
func (f *fakeConn) Close() error                                 { return nil }
func (f *fakeConn) Driver() Driver                               { return DriverSQLite }

func TestUnitOfWork(t *testing.T) {
	t.Run("owner commits", func(t *testing.T) {
		conn := &fakeConn{tx: &fakeTx{}}
		uow := NewUnitOfWork(conn)

		ctx, err := uow.Begin(context.Background())
		require.NoError(t, err)
		assert.Same(t, conn.tx, ExecutorFromContext(ctx, conn))

		require.NoError(t, uow.Commit(ctx))
		assert.Equal(t, 1, conn.tx.commits)
	})

	t.Run("nested unit joins and leaves the commit to the owner", func(t *testing.T) {
		conn := &fakeConn{tx: &fakeTx{}}
		uow := NewUnitOfWork(conn)

		outer, err := uow.Begin(context.Background())
		require.NoError(t, err)
		inner, err := uow.Begin(outer)
		require.NoError(t, err)

		require.NoError(t, uow.Commit(inner))
		require.NoError(t, uow.Rollback(inner))
		assert.Zero(t, conn.tx.commits)
		assert.Zero(t, conn.tx.rollbacks)

		require.NoError(t, uow.Rollback(outer))
		assert.Equal(t, 1, conn.tx.rollbacks)
	})

	t.Run("no transaction", func(t *testing.T) {
		uow := NewUnitOfWork(&fakeConn{})
		assert.ErrorIs(t, uow.Commit(context.Background()), ErrNoTransaction)
		assert.ErrorIs(t, uow.Rollback(context.Background()), ErrNoTransaction)
	})

	t.Run("executor falls back to the connection", func(t *testing.T) {
		conn := &fakeConn{}
		assert.Same(t, conn, ExecutorFromContext(context.Background(), conn))
	})
}
