// Package model defines domain entities for the application.
package model

import "time"

// Transaction types.
const (
	TransactionTypePayment = "payment"
	TransactionTypeTopUp   = "topup"
	TransactionTypeRefund  = "refund"
)

// Transaction statuses.
const (
	TransactionStatusCompleted = "completed"
	TransactionStatusFailed    = "failed"
	TransactionStatusPending   = "pending"
)

// DefaultCurrency is applied when a terminal omits the currency.
const DefaultCurrency = "SAR"

// Transaction represents a wallet transaction recorded after a
// palm-verified payment.
type Transaction struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Type        string    `json:"type"`
	Amount      float64   `json:"amount"`
	Currency    string    `json:"currency"`
	Status      string    `json:"status"`
	Merchant    string    `json:"merchant,omitempty"`
	Description string    `json:"description,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
	CreatedAt   time.Time `json:"created_at"`
}
