package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/palmgate/palmgate/internal/model"
)

// Common errors for registration token operations.
var (
	ErrTokenNotFound     = errors.New("registration token not found")
	ErrTokenUsed         = errors.New("registration token already used")
	ErrTokenExpired      = errors.New("registration token expired")
	ErrTokenExists       = errors.New("registration token already exists")
	ErrPalmAlreadyLinked = errors.New("palm scan already linked to another account")
)

// CreateRegistrationToken inserts a new registration token.
func (r *Repository) CreateRegistrationToken(ctx context.Context, token *model.RegistrationToken) error {
	query := `
		INSERT INTO palm_registration_tokens (id, token, palm_scan_id, is_used, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query,
		token.ID,
		token.Token,
		token.PalmScanID,
		token.IsUsed,
		token.CreatedAt,
		token.ExpiresAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrTokenExists
		}
		return fmt.Errorf("failed to create registration token: %w", err)
	}

	return nil
}

// GetRegistrationToken retrieves a registration token by its opaque value.
func (r *Repository) GetRegistrationToken(ctx context.Context, token string) (*model.RegistrationToken, error) {
	query := `
		SELECT id, token, palm_scan_id, user_id, is_used, linked_at, created_at, expires_at
		FROM palm_registration_tokens
		WHERE token = $1
	`

	t, err := scanRegistrationToken(r.pool.QueryRow(ctx, query, token))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to get registration token: %w", err)
	}

	return t, nil
}

// LinkPalmParams carries everything the linking transaction writes.
type LinkPalmParams struct {
	Token  string
	UserID string
	Card   *model.PaymentCard
	Now    time.Time
}

// LinkPalm redeems a registration token and attaches the palm scan and a
// payment card to the user, all in one transaction. The token row is locked
// for the duration so concurrent redemptions of the same token serialize;
// the loser sees is_used and gets ErrTokenUsed.
//
// Steps, in order: lock and validate the token, stamp the palm scan on the
// user's profile, demote any existing default card, insert the new card as
// default, and mark the token used.
func (r *Repository) LinkPalm(ctx context.Context, params LinkPalmParams) (*model.RegistrationToken, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	lockQuery := `
		SELECT id, token, palm_scan_id, user_id, is_used, linked_at, created_at, expires_at
		FROM palm_registration_tokens
		WHERE token = $1
		FOR UPDATE
	`

	token, err := scanRegistrationToken(tx.QueryRow(ctx, lockQuery, params.Token))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to lock registration token: %w", err)
	}

	if token.IsUsed {
		return nil, ErrTokenUsed
	}
	if token.IsExpired(params.Now) {
		return nil, ErrTokenExpired
	}

	profileQuery := `
		UPDATE profiles
		SET palm_scan_id = $2, updated_at = $3
		WHERE user_id = $1
	`
	stamped, err := tx.Exec(ctx, profileQuery, params.UserID, token.PalmScanID, params.Now)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrPalmAlreadyLinked
		}
		return nil, fmt.Errorf("failed to stamp palm scan on profile: %w", err)
	}
	// Zero rows means the user has no profile row. Failing here rolls the
	// whole redemption back so the token stays redeemable once the profile
	// exists, instead of burning it with the palm stamped nowhere.
	if stamped.RowsAffected() == 0 {
		return nil, ErrProfileNotFound
	}

	card := params.Card
	if card != nil {
		demoteQuery := `
			UPDATE payment_cards
			SET is_default = FALSE, updated_at = $2
			WHERE user_id = $1 AND is_default = TRUE
		`
		if _, err := tx.Exec(ctx, demoteQuery, params.UserID, params.Now); err != nil {
			return nil, fmt.Errorf("failed to demote default cards: %w", err)
		}

		insertQuery := `
			INSERT INTO payment_cards (id, user_id, card_token, last_four, card_brand, cardholder_name, expiry_month, expiry_year, is_default, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`
		if _, err := tx.Exec(ctx, insertQuery,
			card.ID,
			params.UserID,
			card.CardToken,
			card.LastFour,
			card.CardBrand,
			card.CardholderName,
			card.ExpiryMonth,
			card.ExpiryYear,
			true,
			params.Now,
			params.Now,
		); err != nil {
			return nil, fmt.Errorf("failed to insert payment card: %w", err)
		}
	}

	redeemQuery := `
		UPDATE palm_registration_tokens
		SET is_used = TRUE, user_id = $2, linked_at = $3
		WHERE id = $1 AND is_used = FALSE
	`
	result, err := tx.Exec(ctx, redeemQuery, token.ID, params.UserID, params.Now)
	if err != nil {
		return nil, fmt.Errorf("failed to redeem registration token: %w", err)
	}
	if result.RowsAffected() == 0 {
		return nil, ErrTokenUsed
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit link transaction: %w", err)
	}

	token.IsUsed = true
	token.UserID = &params.UserID
	linkedAt := params.Now
	token.LinkedAt = &linkedAt
	return token, nil
}

// DeleteExpiredUnusedTokens purges expired tokens that were never redeemed.
// Redeemed tokens are kept as an audit trail of completed linkings.
func (r *Repository) DeleteExpiredUnusedTokens(ctx context.Context, now time.Time) (int64, error) {
	query := `
		DELETE FROM palm_registration_tokens
		WHERE is_used = FALSE AND expires_at <= $1
	`

	result, err := r.pool.Exec(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired tokens: %w", err)
	}

	return result.RowsAffected(), nil
}

// scanRegistrationToken scans a single row into a RegistrationToken model.
func scanRegistrationToken(row pgx.Row) (*model.RegistrationToken, error) {
	var t model.RegistrationToken
	err := row.Scan(
		&t.ID,
		&t.Token,
		&t.PalmScanID,
		&t.UserID,
		&t.IsUsed,
		&t.LinkedAt,
		&t.CreatedAt,
		&t.ExpiresAt,
	)
	return &t, err
}
