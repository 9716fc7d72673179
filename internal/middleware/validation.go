// Package middleware provides HTTP middleware for the Palmgate API.
package middleware

import (
	"errors"
	"regexp"
	"strings"
)

// Validation limits.
const (
	// MaxPalmScanIDLength bounds the palm scan identifier a terminal may submit.
	MaxPalmScanIDLength = 64

	// MaxTokenLength bounds the registration token a client may submit.
	MaxTokenLength = 64

	// MaxLocationLength bounds free-text location fields on terminal events.
	MaxLocationLength = 128

	// MaxMerchantLength bounds the merchant field on charges.
	MaxMerchantLength = 128
)

// Validation errors.
var (
	ErrPalmScanIDInvalid = errors.New("palm scan identifier is malformed")
	ErrPalmScanIDTooLong = errors.New("palm scan identifier exceeds maximum length")
	ErrTokenInvalid      = errors.New("registration token is malformed")
	ErrTokenTooLong      = errors.New("registration token exceeds maximum length")
	ErrFieldTooLong      = errors.New("field exceeds maximum length")
)

// validPalmScanIDPattern matches identifiers minted at enrollment:
// palm_<unix millis>_<hex>.
var validPalmScanIDPattern = regexp.MustCompile(`^palm_\d+_[a-f0-9]{16}$`)

// validTokenPattern matches registration tokens: reg_<hex>.
var validTokenPattern = regexp.MustCompile(`^reg_[a-f0-9]{32}$`)

// ValidatePalmScanID checks a palm scan identifier submitted by a terminal.
// Rejecting malformed input here keeps garbage out of the verification
// cache and the negative-cache keyspace.
func ValidatePalmScanID(id string) error {
	if len(id) > MaxPalmScanIDLength {
		return ErrPalmScanIDTooLong
	}

	if !validPalmScanIDPattern.MatchString(id) {
		return ErrPalmScanIDInvalid
	}

	return nil
}

// ValidateRegistrationToken checks the shape of a registration token.
// The token is an opaque credential; this only rejects input that could
// never have been minted by an enrollment kiosk.
func ValidateRegistrationToken(token string) error {
	if len(token) > MaxTokenLength {
		return ErrTokenTooLong
	}

	if !validTokenPattern.MatchString(token) {
		return ErrTokenInvalid
	}

	return nil
}

// ValidateFreeText bounds an optional free-text field such as a location
// or merchant name. Empty is always valid.
func ValidateFreeText(value string, max int) error {
	if value == "" {
		return nil
	}
	if len(strings.TrimSpace(value)) > max {
		return ErrFieldTooLong
	}
	return nil
}
