package postgres

import (
	"context"
	"fmt"
	"slices"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sneakyevil96/DatabaseProject/internal/outbox"
)

var (
	_ outbox.Writer = (*OutboxRepository)(nil)
	_ outbox.Store  = (*OutboxRepository)(nil)
)

// OutboxRepository stores outbox messages in PostgreSQL.
type OutboxRepository struct {
	q     querier
	lease time.Duration
}

// NewOutboxRepository returns an OutboxRepository that uses the given pool.
func NewOutboxRepository(pool *pgxpool.Pool) *OutboxRepository {
	return &OutboxRepository{q: pool}
}

// Enqueue inserts msg, due immediately.
func (r *OutboxRepository) Enqueue(ctx context.Context, msg outbox.Message) error {
	query, args, err := psql.Insert("outbox").
		Columns("id", "topic", "message_key", "content_type", "payload", "created_at", "next_attempt_at").
		Values(msg.ID, msg.Topic, msg.Key, msg.ContentType, msg.Payload, msg.CreatedAt, msg.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("building outbox insert: %w", err)
	}
	if _, err := r.q.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting outbox message %s: %w", msg.ID, err)
	}
	return nil
}

// claimOutboxSQL leases due rows to the caller by moving their next attempt
// past the lease. Rows claimed by a concurrent relay are skipped.
const claimOutboxSQL = `WITH due AS (
		SELECT id FROM outbox
		WHERE next_attempt_at <= $1
		ORDER BY next_attempt_at ASC
		LIMIT $2
		FOR UPDATE SKIP LOCKED
	)
	UPDATE outbox o SET next_attempt_at = $3
	FROM due WHERE o.id = due.id
	RETURNING o.id, o.topic, o.message_key, o.content_type, o.payload, o.created_at, o.attempts`

// DefaultOutboxLease is how long claimed messages stay hidden from other
// relays before they become due again.
const DefaultOutboxLease = time.Minute

// Pending claims up to limit messages due at now, oldest first. Claimed
// messages are not returned again until the lease expires or Retry
// reschedules them.
func (r *OutboxRepository) Pending(ctx context.Context, now time.Time, limit int) ([]outbox.Pending, error) {
	lease := r.lease
	if lease <= 0 {
		lease = DefaultOutboxLease
	}
	rows, err := r.q.Query(ctx, claimOutboxSQL, now, limit, now.Add(lease))
	if err != nil {
		return nil, fmt.Errorf("claiming outbox messages: %w", err)
	}
	claimed, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (outbox.Pending, error) {
		var p outbox.Pending
		err := row.Scan(&p.ID, &p.Topic, &p.Key, &p.ContentType, &p.Payload, &p.CreatedAt, &p.Attempts)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("claiming outbox messages: %w", err)
	}
	slices.SortStableFunc(claimed, func(a, b outbox.Pending) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return claimed, nil
}

// Delete removes a published message.
func (r *OutboxRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query, args, err := psql.Delete("outbox").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("building outbox delete: %w", err)
	}
	if _, err := r.q.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("deleting outbox message %s: %w", id, err)
	}
	return nil
}

// Retry records a failed attempt and schedules the next one.
func (r *OutboxRepository) Retry(ctx context.Context, id uuid.UUID, attempts int, lastError string, next time.Time) error {
	query, args, err := psql.Update("outbox").
		Set("attempts", attempts).
		Set("last_error", lastError).
		Set("next_attempt_at", next).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("building outbox update: %w", err)
	}
	if _, err := r.q.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("updating outbox message %s: %w", id, err)
	}
	return nil
}

// Backlog returns the number of messages that are due but unpublished at now.
func (r *OutboxRepository) Backlog(ctx context.Context, now time.Time) (int, error) {
	query, args, err := psql.Select("count(*)").
		From("outbox").
		Where(sq.LtOrEq{"next_attempt_at": now}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("building outbox count: %w", err)
	}
	var n int
	if err := r.q.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting outbox backlog: %w", err)
	}
	return n, nil
}
