package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/palmgate/palmgate/internal/model"
)

// BulkInsertActivityEvents inserts a batch of activity events. Events whose
// stream message ID was already inserted are skipped, so redelivered batches
// are safe to replay.
func (r *Repository) BulkInsertActivityEvents(ctx context.Context, events []*model.ActivityEvent) error {
	if len(events) == 0 {
		return nil
	}

	query := `
		INSERT INTO activity_events (id, event_id, kind, user_id, status, amount, currency, location, occurred_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (event_id) DO NOTHING
	`

	batch := &pgx.Batch{}
	for _, event := range events {
		batch.Queue(query,
			event.ID,
			event.EventID,
			event.Kind,
			event.UserID,
			event.Status,
			event.Amount,
			event.Currency,
			event.Location,
			event.OccurredAt,
			event.CreatedAt,
		)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range events {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to insert activity event: %w", err)
		}
	}

	return nil
}

// UpdateDailyActivityStats folds a batch of events into the per-day
// aggregation table used by the analytics dashboard.
func (r *Repository) UpdateDailyActivityStats(ctx context.Context, events []*model.ActivityEvent) error {
	if len(events) == 0 {
		return nil
	}

	type statKey struct {
		day    time.Time
		kind   string
		status string
	}
	type statDelta struct {
		events int64
		amount float64
	}

	deltas := make(map[statKey]*statDelta)
	for _, event := range events {
		key := statKey{
			day:    event.OccurredAt.UTC().Truncate(24 * time.Hour),
			kind:   event.Kind,
			status: event.Status,
		}
		delta, ok := deltas[key]
		if !ok {
			delta = &statDelta{}
			deltas[key] = delta
		}
		delta.events++
		delta.amount += event.Amount
	}

	query := `
		INSERT INTO daily_activity_stats (day, kind, status, events, amount_total)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (day, kind, status)
		DO UPDATE SET
			events = daily_activity_stats.events + EXCLUDED.events,
			amount_total = daily_activity_stats.amount_total + EXCLUDED.amount_total
	`

	batch := &pgx.Batch{}
	for key, delta := range deltas {
		batch.Queue(query, key.day, key.kind, key.status, delta.events, delta.amount)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range deltas {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to update daily activity stats: %w", err)
		}
	}

	return nil
}

// ListDailyActivityStats returns aggregated activity for the given day range,
// newest day first.
func (r *Repository) ListDailyActivityStats(ctx context.Context, from, to time.Time) ([]*model.DailyActivityStat, error) {
	query := `
		SELECT day, kind, status, events, amount_total
		FROM daily_activity_stats
		WHERE day >= $1 AND day <= $2
		ORDER BY day DESC, kind, status
	`

	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list daily activity stats: %w", err)
	}
	defer rows.Close()

	var stats []*model.DailyActivityStat
	for rows.Next() {
		var stat model.DailyActivityStat
		if err := rows.Scan(
			&stat.Day,
			&stat.Kind,
			&stat.Status,
			&stat.Events,
			&stat.AmountTotal,
		); err != nil {
			return nil, fmt.Errorf("failed to scan daily activity stat: %w", err)
		}
		stats = append(stats, &stat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily activity stats: %w", err)
	}

	return stats, nil
}
