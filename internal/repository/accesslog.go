package repository

import (
	"context"
	"fmt"

	"github.com/palmgate/palmgate/internal/model"
)

// CreateAccessLog inserts an access-control decision record. Both granted
// and denied decisions are written so the audit trail is complete.
func (r *Repository) CreateAccessLog(ctx context.Context, log *model.AccessLog) error {
	query := `
		INSERT INTO access_logs (id, user_id, area, action, reason, timestamp, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.pool.Exec(ctx, query,
		log.ID,
		log.UserID,
		log.Area,
		log.Action,
		log.Reason,
		log.Timestamp,
		log.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create access log: %w", err)
	}

	return nil
}

// ListAccessLogsByUserID retrieves a user's recent access decisions,
// newest first.
func (r *Repository) ListAccessLogsByUserID(ctx context.Context, userID string, limit int) ([]*model.AccessLog, error) {
	query := `
		SELECT id, user_id, area, action, reason, timestamp, created_at
		FROM access_logs
		WHERE user_id = $1
		ORDER BY timestamp DESC, id DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list access logs: %w", err)
	}
	defer rows.Close()

	var logs []*model.AccessLog
	for rows.Next() {
		var log model.AccessLog
		var reason *string
		if err := rows.Scan(
			&log.ID,
			&log.UserID,
			&log.Area,
			&log.Action,
			&reason,
			&log.Timestamp,
			&log.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan access log: %w", err)
		}
		if reason != nil {
			log.Reason = *reason
		}
		logs = append(logs, &log)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating access logs: %w", err)
	}

	return logs, nil
}
