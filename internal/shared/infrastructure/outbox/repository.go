package outbox

import (
	"context"
	"database/sql"
	"embed"
	"time"

	"github.com/felixgeelhaar/salonops/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/salonops/internal/shared/infrastructure/migrations"
)

//go:embed schema/sqlite/*.sql schema/postgres/*.sql
var schemaFS embed.FS

// Repository defines the interface for outbox persistence.
type Repository interface {
	// Save stores a new outbox message.
	Save(ctx context.Context, msg *Message) error

	// GetUnpublished retrieves messages due for publishing, oldest first.
	GetUnpublished(ctx context.Context, limit int) ([]*Message, error)

	// MarkPublished marks a message as successfully published.
	MarkPublished(ctx context.Context, id int64) error

	// MarkFailed records a publish failure and when to retry.
	MarkFailed(ctx context.Context, id int64, err string, nextRetryAt time.Time) error

	// MarkDead marks a message as dead-lettered.
	MarkDead(ctx context.Context, id int64, reason string) error

	// Counts reports how many messages are pending, published and dead.
	Counts(ctx context.Context) (Counts, error)

	// DeleteOld removes published messages created before cutoff.
	DeleteOld(ctx context.Context, cutoff time.Time) (int64, error)
}

// Counts summarizes the outbox contents.
type Counts struct {
	Pending   int64
	Published int64
	Dead      int64
}

// SQLRepository implements Repository on a database connection. It joins a
// transaction already present in the context.
type SQLRepository struct {
	conn database.Connection
	now  func() time.Time
}

// NewSQLRepository creates an outbox repository. Call Migrate before use.
func NewSQLRepository(conn database.Connection) *SQLRepository {
	return &SQLRepository{conn: conn, now: time.Now}
}

// Migrate creates the outbox table.
func (r *SQLRepository) Migrate(ctx context.Context) error {
	return migrations.Run(ctx, r.conn, schemaFS, "schema/"+r.conn.Driver().String())
}

func (r *SQLRepository) exec(ctx context.Context) database.Executor {
	return database.ExecutorFromContext(ctx, r.conn)
}

func (r *SQLRepository) q(query string) string {
	return database.Rebind(r.conn.Driver(), query)
}

// Save stores a new outbox message.
func (r *SQLRepository) Save(ctx context.Context, msg *Message) error {
	row := r.exec(ctx).QueryRow(ctx, r.q(`
		INSERT INTO outbox_events (event_id, aggregate_type, aggregate_id, routing_key, payload, correlation_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id`),
		msg.EventID, msg.AggregateType, msg.AggregateID, msg.RoutingKey, string(msg.Payload), msg.CorrelationID, toMillis(msg.CreatedAt),
	)
	return row.Scan(&msg.ID)
}

// GetUnpublished retrieves messages due for publishing, oldest first.
func (r *SQLRepository) GetUnpublished(ctx context.Context, limit int) ([]*Message, error) {
	rows, err := r.exec(ctx).Query(ctx, r.q(`
		SELECT id, event_id, aggregate_type, aggregate_id, routing_key, payload, correlation_id,
		       created_at, published_at, next_retry_at, retry_count, last_error, dead_lettered_at, dead_letter_reason
		FROM outbox_events
		WHERE published_at IS NULL AND dead_lettered_at IS NULL
		  AND (next_retry_at IS NULL OR next_retry_at <= ?)
		ORDER BY created_at, id
		LIMIT ?`), toMillis(r.now()), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*Message
	for rows.Next() {
		var (
			msg                            Message
			payload                        string
			createdAt                      int64
			publishedAt, nextRetry, deadAt sql.NullInt64
		)
		if err := rows.Scan(&msg.ID, &msg.EventID, &msg.AggregateType, &msg.AggregateID, &msg.RoutingKey, &payload, &msg.CorrelationID,
			&createdAt, &publishedAt, &nextRetry, &msg.RetryCount, &msg.LastError, &deadAt, &msg.DeadLetterReason); err != nil {
			return nil, err
		}
		msg.Payload = []byte(payload)
		msg.CreatedAt = fromMillis(createdAt)
		msg.PublishedAt = nullableTime(publishedAt)
		msg.NextRetryAt = nullableTime(nextRetry)
		msg.DeadLetteredAt = nullableTime(deadAt)
		messages = append(messages, &msg)
	}
	return messages, rows.Err()
}

// MarkPublished marks a message as successfully published.
func (r *SQLRepository) MarkPublished(ctx context.Context, id int64) error {
	_, err := r.exec(ctx).Exec(ctx, r.q(`UPDATE outbox_events SET published_at = ? WHERE id = ?`), toMillis(r.now()), id)
	return err
}

// MarkFailed records a publish failure and when to retry.
func (r *SQLRepository) MarkFailed(ctx context.Context, id int64, errMsg string, nextRetryAt time.Time) error {
	_, err := r.exec(ctx).Exec(ctx, r.q(`
		UPDATE outbox_events
		SET retry_count = retry_count + 1, last_error = ?, next_retry_at = ?
		WHERE id = ?`), errMsg, toMillis(nextRetryAt), id)
	return err
}

// MarkDead marks a message as dead-lettered.
func (r *SQLRepository) MarkDead(ctx context.Context, id int64, reason string) error {
	_, err := r.exec(ctx).Exec(ctx, r.q(`
		UPDATE outbox_events
		SET retry_count = retry_count + 1, last_error = ?, dead_letter_reason = ?, dead_lettered_at = ?
		WHERE id = ?`), reason, reason, toMillis(r.now()), id)
	return err
}

// Counts reports how many messages are pending, published and dead.
func (r *SQLRepository) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	err := r.exec(ctx).QueryRow(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN published_at IS NULL AND dead_lettered_at IS NULL THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN published_at IS NOT NULL THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN dead_lettered_at IS NOT NULL THEN 1 ELSE 0 END), 0)
		FROM outbox_events`).Scan(&c.Pending, &c.Published, &c.Dead)
	return c, err
}

// DeleteOld removes published messages created before cutoff.
func (r *SQLRepository) DeleteOld(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.exec(ctx).Exec(ctx, r.q(`
		DELETE FROM outbox_events WHERE published_at IS NOT NULL AND created_at < ?`), toMillis(cutoff))
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func nullableTime(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := fromMillis(v.Int64)
	return &t
}
