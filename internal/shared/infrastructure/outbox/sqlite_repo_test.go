package outbox

import (
	"context"
	"testing"
	"time"

	"github.com/felixgeelhaar/planwise/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/planwise/internal/shared/infrastructure/database/sqlite"
	"github.com/felixgeelhaar/planwise/internal/shared/infrastructure/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) database.Connection {
	t.Helper()
	ctx := context.Background()
	conn, err := sqlite.Open(ctx, database.Config{SQLitePath: sqlite.MemoryPath})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, migrations.Run(ctx, conn))
	return conn
}

func TestSQLiteRepository(t *testing.T) {
	ctx := context.Background()
	conn := setupTestDB(t)
	repo := NewSQLiteRepository(conn)

	first := NewMessage("planwise.risk.detected", []byte(`{"a":1}`))
	second := NewMessage("planwise.risk.dismissed", []byte(`{"b":2}`))
	require.NoError(t, repo.Save(ctx, first))
	require.NoError(t, repo.Save(ctx, second))
	assert.Greater(t, second.ID, first.ID)

	t.Run("pending in insertion order", func(t *testing.T) {
		msgs, err := repo.GetUnpublished(ctx, 10)
		require.NoError(t, err)
		require.Len(t, msgs, 2)
		assert.Equal(t, first.EventID, msgs[0].EventID)
		assert.Equal(t, []byte(`{"a":1}`), msgs[0].Payload)
		assert.Equal(t, "planwise.risk.dismissed", msgs[1].RoutingKey)

		limited, err := repo.GetUnpublished(ctx, 1)
		require.NoError(t, err)
		assert.Len(t, limited, 1)
	})

	t.Run("failed message waits for its retry time", func(t *testing.T) {
		require.NoError(t, repo.MarkFailed(ctx, first.ID, "broker down", time.Now().Add(time.Hour)))

		msgs, err := repo.GetUnpublished(ctx, 10)
		require.NoError(t, err)
		require.Len(t, msgs, 1)
		assert.Equal(t, second.ID, msgs[0].ID)
	})

	t.Run("published and dead messages leave the queue", func(t *testing.T) {
		require.NoError(t, repo.MarkPublished(ctx, second.ID))
		require.NoError(t, repo.MarkDead(ctx, first.ID, "gave up"))

		msgs, err := repo.GetUnpublished(ctx, 10)
		require.NoError(t, err)
		assert.Empty(t, msgs)

		var retries int
		var reason string
		require.NoError(t, conn.QueryRow(ctx,
			`SELECT retry_count, dead_letter_reason FROM outbox WHERE id = ?`, first.ID).Scan(&retries, &reason))
		assert.Equal(t, 2, retries)
		assert.Equal(t, "gave up", reason)
	})

	t.Run("cleanup keeps recent messages", func(t *testing.T) {
		deleted, err := repo.DeleteOld(ctx, 7)
		require.NoError(t, err)
		assert.Zero(t, deleted)

		deleted, err = repo.DeleteOld(ctx, -1)
		require.NoError(t, err)
		assert.Equal(t, int64(1), deleted)
	})

	t.Run("save joins the unit of work", func(t *testing.T) {
		uow := database.NewUnitOfWork(conn)
		txCtx, err := uow.Begin(ctx)
		require.NoError(t, err)
		require.NoError(t, repo.Save(txCtx, NewMessage("planwise.risk.detected", []byte(`{}`))))
		require.NoError(t, uow.Rollback(txCtx))

		msgs, err := repo.GetUnpublished(ctx, 10)
		require.NoError(t, err)
		assert.Empty(t, msgs)
	})
}
