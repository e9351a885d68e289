package outbox

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/felixgeelhaar/planwise/internal/shared/infrastructure/database"
	"github.com/google/uuid"
)

const sqliteTimeLayout = "2006-01-02T15:04:05Z"

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	conn database.Connection
}

// NewSQLiteRepository creates a new SQLite outbox repository.
func NewSQLiteRepository(conn database.Connection) *SQLiteRepository {
	return &SQLiteRepository{conn: conn}
}

// Save stores a new outbox message.
func (r *SQLiteRepository) Save(ctx context.Context, msg *Message) error {
	err := database.ExecutorFromContext(ctx, r.conn).QueryRow(ctx, `
		INSERT INTO outbox (event_id, routing_key, payload, created_at)
		VALUES (?, ?, ?, ?)
		RETURNING id`,
		msg.EventID.String(), msg.RoutingKey, string(msg.Payload), msg.CreatedAt.UTC().Format(sqliteTimeLayout),
	).Scan(&msg.ID)
	if err != nil {
		return fmt.Errorf("save outbox message %s: %w", msg.RoutingKey, err)
	}
	return nil
}

// GetUnpublished retrieves due messages ordered by insertion.
func (r *SQLiteRepository) GetUnpublished(ctx context.Context, limit int) ([]*Message, error) {
	rows, err := database.ExecutorFromContext(ctx, r.conn).Query(ctx, `
		SELECT id, event_id, routing_key, payload, created_at, next_retry_at, retry_count, last_error
		FROM outbox
		WHERE published_at IS NULL AND dead_lettered_at IS NULL
		  AND (next_retry_at IS NULL OR next_retry_at <= ?)
		ORDER BY id
		LIMIT ?`,
		time.Now().UTC().Format(sqliteTimeLayout), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query outbox: %w", err)
	}
	defer rows.Close()

	messages := []*Message{}
	for rows.Next() {
		var (
			msg                         Message
			eventID, payload, createdAt string
			nextRetry, lastError        sql.NullString
		)
		if err := rows.Scan(&msg.ID, &eventID, &msg.RoutingKey, &payload, &createdAt, &nextRetry, &msg.RetryCount, &lastError); err != nil {
			return nil, err
		}
		if msg.EventID, err = uuid.Parse(eventID); err != nil {
			return nil, err
		}
		if msg.CreatedAt, err = time.Parse(sqliteTimeLayout, createdAt); err != nil {
			return nil, err
		}
		msg.Payload = []byte(payload)
		if nextRetry.Valid {
			if t, err := time.Parse(sqliteTimeLayout, nextRetry.String); err == nil {
				msg.NextRetryAt = &t
			}
		}
		if lastError.Valid {
			msg.LastError = &lastError.String
		}
		messages = append(messages, &msg)
	}
	return messages, rows.Err()
}

// MarkPublished marks a message as relayed.
func (r *SQLiteRepository) MarkPublished(ctx context.Context, id int64) error {
	return r.exec(ctx, `UPDATE outbox SET published_at = ? WHERE id = ?`,
		time.Now().UTC().Format(sqliteTimeLayout), id)
}

// MarkFailed records a failed attempt and schedules the next one.
func (r *SQLiteRepository) MarkFailed(ctx context.Context, id int64, reason string, nextRetryAt time.Time) error {
	return r.exec(ctx, `
		UPDATE outbox SET retry_count = retry_count + 1, last_error = ?, next_retry_at = ?
		WHERE id = ?`,
		reason, nextRetryAt.UTC().Format(sqliteTimeLayout), id)
}

// MarkDead stops further attempts.
func (r *SQLiteRepository) MarkDead(ctx context.Context, id int64, reason string) error {
	return r.exec(ctx, `
		UPDATE outbox SET retry_count = retry_count + 1, last_error = ?, dead_lettered_at = ?, dead_letter_reason = ?
		WHERE id = ?`,
		reason, time.Now().UTC().Format(sqliteTimeLayout), reason, id)
}

// DeleteOld removes published messages older than the retention period.
func (r *SQLiteRepository) DeleteOld(ctx context.Context, olderThanDays int) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -olderThanDays).Format(sqliteTimeLayout)
	res, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx,
		`DELETE FROM outbox WHERE published_at IS NOT NULL AND published_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete old outbox messages: %w", err)
	}
	return res.RowsAffected()
}

func (r *SQLiteRepository) exec(ctx context.Context, query string, args ...any) error {
	if _, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("update outbox: %w", err)
	}
	return nil
}
