package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/palmgate/palmgate/internal/model"
)

// TransactionFilter defines filters for listing transactions.
type TransactionFilter struct {
	UserID        string
	Type          string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

// CreateTransaction inserts a new wallet transaction.
func (r *Repository) CreateTransaction(ctx context.Context, tx *model.Transaction) error {
	query := `
		INSERT INTO transactions (id, user_id, type, amount, currency, status, merchant, description, timestamp, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.pool.Exec(ctx, query,
		tx.ID,
		tx.UserID,
		tx.Type,
		tx.Amount,
		tx.Currency,
		tx.Status,
		tx.Merchant,
		tx.Description,
		tx.Timestamp,
		tx.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	return nil
}

// ListTransactions retrieves a paginated list of a user's transactions,
// newest first.
func (r *Repository) ListTransactions(ctx context.Context, filter TransactionFilter, cursor string, limit int) ([]*model.Transaction, string, error) {
	var cursorData *PaginationCursor
	if cursor != "" {
		var err error
		cursorData, err = decodeCursor(cursor)
		if err != nil {
			return nil, "", ErrInvalidCursor
		}
	}

	query := `
		SELECT id, user_id, type, amount, currency, status, merchant, description, timestamp, created_at
		FROM transactions
		WHERE user_id = $1
	`
	args := []any{filter.UserID}
	argIndex := 2

	if cursorData != nil {
		query += fmt.Sprintf(" AND (created_at, id) < ($%d, $%d)", argIndex, argIndex+1)
		args = append(args, cursorData.CreatedAt, cursorData.ID)
		argIndex += 2
	}

	if filter.Type != "" {
		query += fmt.Sprintf(" AND type = $%d", argIndex)
		args = append(args, filter.Type)
		argIndex++
	}

	if filter.CreatedAfter != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", argIndex)
		args = append(args, *filter.CreatedAfter)
		argIndex++
	}

	if filter.CreatedBefore != nil {
		query += fmt.Sprintf(" AND created_at <= $%d", argIndex)
		args = append(args, *filter.CreatedBefore)
		argIndex++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d", argIndex)
	args = append(args, limit+1) // Fetch one extra to determine hasMore

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, "", fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var txs []*model.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, "", fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, "", fmt.Errorf("error iterating transactions: %w", err)
	}

	var nextCursor string
	if len(txs) > limit {
		txs = txs[:limit]
		last := txs[len(txs)-1]
		nextCursor = encodeCursor(&PaginationCursor{
			ID:        last.ID,
			CreatedAt: last.CreatedAt,
		})
	}

	return txs, nextCursor, nil
}

func scanTransaction(rows pgx.Rows) (*model.Transaction, error) {
	var tx model.Transaction
	var merchant, description *string

	err := rows.Scan(
		&tx.ID,
		&tx.UserID,
		&tx.Type,
		&tx.Amount,
		&tx.Currency,
		&tx.Status,
		&merchant,
		&description,
		&tx.Timestamp,
		&tx.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if merchant != nil {
		tx.Merchant = *merchant
	}
	if description != nil {
		tx.Description = *description
	}
	return &tx, nil
}
