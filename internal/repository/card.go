package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/palmgate/palmgate/internal/model"
)

// ErrCardNotFound is returned when a payment card does not exist.
var ErrCardNotFound = errors.New("payment card not found")

// CreateCard inserts a new payment card. If the card is marked default,
// any existing default for the same user is demoted first.
func (r *Repository) CreateCard(ctx context.Context, card *model.PaymentCard) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if card.IsDefault {
		demoteQuery := `
			UPDATE payment_cards
			SET is_default = FALSE, updated_at = $2
			WHERE user_id = $1 AND is_default = TRUE
		`
		if _, err := tx.Exec(ctx, demoteQuery, card.UserID, card.UpdatedAt); err != nil {
			return fmt.Errorf("failed to demote default cards: %w", err)
		}
	}

	query := `
		INSERT INTO payment_cards (id, user_id, card_token, last_four, card_brand, cardholder_name, expiry_month, expiry_year, is_default, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	if _, err := tx.Exec(ctx, query,
		card.ID,
		card.UserID,
		card.CardToken,
		card.LastFour,
		card.CardBrand,
		card.CardholderName,
		card.ExpiryMonth,
		card.ExpiryYear,
		card.IsDefault,
		card.CreatedAt,
		card.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to create payment card: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit card insert: %w", err)
	}

	return nil
}

// GetDefaultCard retrieves the user's default payment card.
func (r *Repository) GetDefaultCard(ctx context.Context, userID string) (*model.PaymentCard, error) {
	query := `
		SELECT id, user_id, card_token, last_four, card_brand, cardholder_name, expiry_month, expiry_year, is_default, created_at, updated_at
		FROM payment_cards
		WHERE user_id = $1 AND is_default = TRUE
	`

	card, err := scanCard(r.pool.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCardNotFound
		}
		return nil, fmt.Errorf("failed to get default card: %w", err)
	}

	return card, nil
}

// ListCardsByUserID retrieves all payment cards for a user, default first.
func (r *Repository) ListCardsByUserID(ctx context.Context, userID string) ([]*model.PaymentCard, error) {
	query := `
		SELECT id, user_id, card_token, last_four, card_brand, cardholder_name, expiry_month, expiry_year, is_default, created_at, updated_at
		FROM payment_cards
		WHERE user_id = $1
		ORDER BY is_default DESC, created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payment cards: %w", err)
	}
	defer rows.Close()

	var cards []*model.PaymentCard
	for rows.Next() {
		card, err := scanCardFromRows(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment card: %w", err)
		}
		cards = append(cards, card)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payment cards: %w", err)
	}

	return cards, nil
}

// SetDefaultCard makes the given card the user's default, demoting others.
func (r *Repository) SetDefaultCard(ctx context.Context, userID, cardID string, now time.Time) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	demoteQuery := `
		UPDATE payment_cards
		SET is_default = FALSE, updated_at = $2
		WHERE user_id = $1 AND is_default = TRUE
	`
	if _, err := tx.Exec(ctx, demoteQuery, userID, now); err != nil {
		return fmt.Errorf("failed to demote default cards: %w", err)
	}

	promoteQuery := `
		UPDATE payment_cards
		SET is_default = TRUE, updated_at = $3
		WHERE id = $1 AND user_id = $2
	`
	result, err := tx.Exec(ctx, promoteQuery, cardID, userID, now)
	if err != nil {
		return fmt.Errorf("failed to promote card: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrCardNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit default change: %w", err)
	}

	return nil
}

// DeleteCard removes a payment card owned by the user.
func (r *Repository) DeleteCard(ctx context.Context, userID, cardID string) error {
	query := `DELETE FROM payment_cards WHERE id = $1 AND user_id = $2`

	result, err := r.pool.Exec(ctx, query, cardID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete payment card: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrCardNotFound
	}

	return nil
}

func scanCard(row pgx.Row) (*model.PaymentCard, error) {
	var card model.PaymentCard
	err := row.Scan(
		&card.ID,
		&card.UserID,
		&card.CardToken,
		&card.LastFour,
		&card.CardBrand,
		&card.CardholderName,
		&card.ExpiryMonth,
		&card.ExpiryYear,
		&card.IsDefault,
		&card.CreatedAt,
		&card.UpdatedAt,
	)
	return &card, err
}

func scanCardFromRows(rows pgx.Rows) (*model.PaymentCard, error) {
	var card model.PaymentCard
	err := rows.Scan(
		&card.ID,
		&card.UserID,
		&card.CardToken,
		&card.LastFour,
		&card.CardBrand,
		&card.CardholderName,
		&card.ExpiryMonth,
		&card.ExpiryYear,
		&card.IsDefault,
		&card.CreatedAt,
		&card.UpdatedAt,
	)
	return &card, err
}
