// Package model defines domain entities for the application.
package model

import (
	"strings"
	"time"
)

// Card brand constants derived from the card number prefix.
const (
	BrandVisa       = "visa"
	BrandMastercard = "mastercard"
	BrandAmex       = "amex"
	BrandMada       = "mada"
	BrandUnknown    = "unknown"
)

// PaymentCard represents a tokenized payment card attached to a user.
// The card token is a local placeholder, not a real gateway token; only
// the trailing four digits of the PAN are ever stored.
type PaymentCard struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	CardToken      string    `json:"-"` // Never serialize
	LastFour       string    `json:"last_four"`
	CardBrand      string    `json:"card_brand"`
	CardholderName string    `json:"cardholder_name"`
	ExpiryMonth    int       `json:"expiry_month"`
	ExpiryYear     int       `json:"expiry_year"`
	IsDefault      bool      `json:"is_default"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// LastFourOf returns the trailing four digits of a card number,
// ignoring spaces and separators.
func LastFourOf(cardNumber string) string {
	digits := digitsOnly(cardNumber)
	if len(digits) < 4 {
		return digits
	}
	return digits[len(digits)-4:]
}

// DetectBrand infers the card brand from the number prefix.
// Mada ranges overlap Visa/Mastercard; the common 4462/4463 and 5888
// prefixes used by local issuers are checked first.
func DetectBrand(cardNumber string) string {
	digits := digitsOnly(cardNumber)
	switch {
	case len(digits) < 2:
		return BrandUnknown
	case strings.HasPrefix(digits, "4462"), strings.HasPrefix(digits, "4463"), strings.HasPrefix(digits, "5888"):
		return BrandMada
	case digits[0] == '4':
		return BrandVisa
	case digits[0] == '5' && digits[1] >= '1' && digits[1] <= '5':
		return BrandMastercard
	case strings.HasPrefix(digits, "34"), strings.HasPrefix(digits, "37"):
		return BrandAmex
	default:
		return BrandUnknown
	}
}

// digitsOnly strips everything but ASCII digits.
func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
