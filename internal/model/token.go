// Package model defines domain entities for the application.
package model

import "time"

// RegistrationTokenTTL is how long a registration token stays redeemable.
const RegistrationTokenTTL = 24 * time.Hour

// TokenStatus represents the computed status of a registration token.
type TokenStatus string

const (
	TokenStatusValid   TokenStatus = "valid"
	TokenStatusUsed    TokenStatus = "used"
	TokenStatusExpired TokenStatus = "expired"
)

// RegistrationToken is the bearer credential minted at palm capture time.
// It links a palm-scan identifier captured on one device to an account
// linking action performed on another. A token is redeemed at most once.
type RegistrationToken struct {
	ID         string     `json:"id"`
	Token      string     `json:"token"`
	PalmScanID string     `json:"palm_scan_id"`
	UserID     *string    `json:"user_id,omitempty"`
	IsUsed     bool       `json:"is_used"`
	LinkedAt   *time.Time `json:"linked_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
}

// IsExpired reports whether the token is past its expiry.
// The boundary is exclusive: a token whose expiry equals "now" is expired.
func (t *RegistrationToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// Status computes the current status of the token.
// Used takes precedence over expired so audit views show why a token died.
func (t *RegistrationToken) Status(now time.Time) TokenStatus {
	if t.IsUsed {
		return TokenStatusUsed
	}
	if t.IsExpired(now) {
		return TokenStatusExpired
	}
	return TokenStatusValid
}

// Redeemable reports whether the token can still be redeemed.
func (t *RegistrationToken) Redeemable(now time.Time) bool {
	return t.Status(now) == TokenStatusValid
}
