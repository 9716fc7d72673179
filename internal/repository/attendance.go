package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/palmgate/palmgate/internal/model"
)

// CreateAttendanceRecord inserts a new attendance record.
func (r *Repository) CreateAttendanceRecord(ctx context.Context, record *model.AttendanceRecord) error {
	query := `
		INSERT INTO attendance_records (id, user_id, type, location, timestamp, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query,
		record.ID,
		record.UserID,
		record.Type,
		record.Location,
		record.Timestamp,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create attendance record: %w", err)
	}

	return nil
}

// GetLastAttendanceRecord retrieves the user's most recent attendance record.
// Returns nil without error when the user has no records yet.
func (r *Repository) GetLastAttendanceRecord(ctx context.Context, userID string) (*model.AttendanceRecord, error) {
	query := `
		SELECT id, user_id, type, location, timestamp, created_at
		FROM attendance_records
		WHERE user_id = $1
		ORDER BY timestamp DESC, id DESC
		LIMIT 1
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get last attendance record: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}

	record, err := scanAttendanceRecord(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan attendance record: %w", err)
	}

	return record, nil
}

// ListAttendanceRecords retrieves a paginated list of a user's attendance
// records, newest first.
func (r *Repository) ListAttendanceRecords(ctx context.Context, userID string, cursor string, limit int) ([]*model.AttendanceRecord, string, error) {
	var cursorData *PaginationCursor
	if cursor != "" {
		var err error
		cursorData, err = decodeCursor(cursor)
		if err != nil {
			return nil, "", ErrInvalidCursor
		}
	}

	query := `
		SELECT id, user_id, type, location, timestamp, created_at
		FROM attendance_records
		WHERE user_id = $1
	`
	args := []any{userID}
	argIndex := 2

	if cursorData != nil {
		query += fmt.Sprintf(" AND (created_at, id) < ($%d, $%d)", argIndex, argIndex+1)
		args = append(args, cursorData.CreatedAt, cursorData.ID)
		argIndex += 2
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d", argIndex)
	args = append(args, limit+1)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, "", fmt.Errorf("failed to list attendance records: %w", err)
	}
	defer rows.Close()

	var records []*model.AttendanceRecord
	for rows.Next() {
		record, err := scanAttendanceRecord(rows)
		if err != nil {
			return nil, "", fmt.Errorf("failed to scan attendance record: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, "", fmt.Errorf("error iterating attendance records: %w", err)
	}

	var nextCursor string
	if len(records) > limit {
		records = records[:limit]
		last := records[len(records)-1]
		nextCursor = encodeCursor(&PaginationCursor{
			ID:        last.ID,
			CreatedAt: last.CreatedAt,
		})
	}

	return records, nextCursor, nil
}

func scanAttendanceRecord(rows pgx.Rows) (*model.AttendanceRecord, error) {
	var record model.AttendanceRecord
	var location *string

	err := rows.Scan(
		&record.ID,
		&record.UserID,
		&record.Type,
		&location,
		&record.Timestamp,
		&record.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if location != nil {
		record.Location = *location
	}
	return &record, nil
}
