package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/logicalc/loancalc/pkg/events"
	pkgpostgres "github.com/logicalc/loancalc/pkg/postgres"
)

// OutboxRepo implements events.OutboxRepository on the outbox table.
type OutboxRepo struct {
	pool *pgxpool.Pool
}

var _ events.OutboxRepository = (*OutboxRepo)(nil)

// NewOutboxRepo creates a new PostgreSQL-backed outbox repository.
func NewOutboxRepo(pool *pgxpool.Pool) *OutboxRepo {
	return &OutboxRepo{pool: pool}
}

// Store inserts entries outside of any aggregate transaction.
func (r *OutboxRepo) Store(ctx context.Context, entries []events.OutboxEntry) error {
	return insertOutbox(ctx, r.pool, entries)
}

// FetchUnpublished returns the oldest unpublished entries.
func (r *OutboxRepo) FetchUnpublished(ctx context.Context, batchSize int) ([]events.OutboxEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, aggregate_id, aggregate_type, event_type, payload, created_at
		FROM outbox
		WHERE published_at IS NULL
		ORDER BY created_at, id
		LIMIT $1`, batchSize)
	if err != nil {
		return nil, fmt.Errorf("fetch outbox: %w", err)
	}
	defer rows.Close()

	var out []events.OutboxEntry
	for rows.Next() {
		var e events.OutboxEntry
		if err := rows.Scan(&e.ID, &e.AggregateID, &e.AggregateType, &e.EventType, &e.Payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		e.CreatedAt = e.CreatedAt.UTC()
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("fetch outbox: %w", err)
	}
	return out, nil
}

// MarkPublished stamps entries as published. Already published entries keep
// their original timestamp.
func (r *OutboxRepo) MarkPublished(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.pool.Exec(ctx, `
		UPDATE outbox SET published_at = $2
		WHERE id = ANY($1::uuid[]) AND published_at IS NULL`,
		ids, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("mark outbox published: %w", err)
	}
	return nil
}

// insertOutbox writes entries through q, which is the pool or the
// transaction of the aggregate that raised them.
func insertOutbox(ctx context.Context, q pkgpostgres.Querier, entries []events.OutboxEntry) error {
	const insertOutboxSQL = `
		INSERT INTO outbox (id, aggregate_id, aggregate_type, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	for _, e := range entries {
		if _, err := q.Exec(ctx, insertOutboxSQL,
			e.ID, e.AggregateID, e.AggregateType, e.EventType, e.Payload, e.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert outbox event %s: %w", e.EventType, err)
		}
	}
	return nil
}
