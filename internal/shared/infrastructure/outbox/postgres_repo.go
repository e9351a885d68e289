package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/planwise/internal/shared/infrastructure/database"
)

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	conn database.Connection
}

// NewPostgresRepository creates a new PostgreSQL outbox repository.
func NewPostgresRepository(conn database.Connection) *PostgresRepository {
	return &PostgresRepository{conn: conn}
}

// Save stores a new outbox message.
func (r *PostgresRepository) Save(ctx context.Context, msg *Message) error {
	err := database.ExecutorFromContext(ctx, r.conn).QueryRow(ctx, `
		INSERT INTO outbox (event_id, routing_key, payload, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		msg.EventID, msg.RoutingKey, string(msg.Payload), msg.CreatedAt.UTC(),
	).Scan(&msg.ID)
	if err != nil {
		return fmt.Errorf("save outbox message %s: %w", msg.RoutingKey, err)
	}
	return nil
}

// GetUnpublished retrieves due messages ordered by insertion. Rows locked by
// another relay are skipped.
func (r *PostgresRepository) GetUnpublished(ctx context.Context, limit int) ([]*Message, error) {
	rows, err := database.ExecutorFromContext(ctx, r.conn).Query(ctx, `
		SELECT id, event_id, routing_key, payload::text, created_at, next_retry_at, retry_count, last_error
		FROM outbox
		WHERE published_at IS NULL AND dead_lettered_at IS NULL
		  AND (next_retry_at IS NULL OR next_retry_at <= NOW())
		ORDER BY id
		LIMIT $1
		FOR UPDATE SKIP LOCKED`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query outbox: %w", err)
	}
	defer rows.Close()

	messages := []*Message{}
	for rows.Next() {
		var (
			msg     Message
			payload string
		)
		if err := rows.Scan(&msg.ID, &msg.EventID, &msg.RoutingKey, &payload, &msg.CreatedAt, &msg.NextRetryAt, &msg.RetryCount, &msg.LastError); err != nil {
			return nil, err
		}
		msg.Payload = []byte(payload)
		messages = append(messages, &msg)
	}
	return messages, rows.Err()
}

// MarkPublished marks a message as relayed.
func (r *PostgresRepository) MarkPublished(ctx context.Context, id int64) error {
	return r.exec(ctx, `UPDATE outbox SET published_at = NOW() WHERE id = $1`, id)
}

// MarkFailed records a failed attempt and schedules the next one.
func (r *PostgresRepository) MarkFailed(ctx context.Context, id int64, reason string, nextRetryAt time.Time) error {
	return r.exec(ctx, `
		UPDATE outbox SET retry_count = retry_count + 1, last_error = $2, next_retry_at = $3
		WHERE id = $1`,
		id, reason, nextRetryAt.UTC())
}

// MarkDead stops further attempts.
func (r *PostgresRepository) MarkDead(ctx context.Context, id int64, reason string) error {
	return r.exec(ctx, `
		UPDATE outbox SET retry_count = retry_count + 1, last_error = $2, dead_lettered_at = NOW(), dead_letter_reason = $2
		WHERE id = $1`,
		id, reason)
}

// DeleteOld removes published messages older than the retention period.
func (r *PostgresRepository) DeleteOld(ctx context.Context, olderThanDays int) (int64, error) {
	res, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx,
		`DELETE FROM outbox WHERE published_at IS NOT NULL AND published_at < NOW() - make_interval(days => $1)`,
		olderThanDays)
	if err != nil {
		return 0, fmt.Errorf("delete old outbox messages: %w", err)
	}
	return res.RowsAffected()
}

func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) error {
	if _, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("update outbox: %w", err)
	}
	return nil
}
