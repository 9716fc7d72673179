// Package analytics provides activity event capture and processing.
package analytics

import (
	"fmt"

	"github.com/palmgate/palmgate/internal/model"
)

const (
	maxUserIDLength    = 64
	maxStatusLength    = 32
	maxEventMetaLength = 128
)

// ValidateActivityEventPayload validates activity event payload fields.
func ValidateActivityEventPayload(payload ActivityEventPayload) error {
	if payload.Kind == "" {
		return fmt.Errorf("kind is required")
	}
	if !model.IsValidActivityKind(payload.Kind) {
		return fmt.Errorf("unknown kind %q", payload.Kind)
	}
	if payload.UserID == "" {
		return fmt.Errorf("user_id is required")
	}
	if len(payload.UserID) > maxUserIDLength {
		return fmt.Errorf("user_id too long")
	}
	if payload.Status == "" {
		return fmt.Errorf("status is required")
	}
	if len(payload.Status) > maxStatusLength {
		return fmt.Errorf("status too long")
	}
	if payload.Amount < 0 {
		return fmt.Errorf("amount must not be negative")
	}
	if payload.Kind != model.ActivityKindPayment && payload.Amount != 0 {
		return fmt.Errorf("amount is only valid for payment events")
	}
	if payload.OccurredAt <= 0 {
		return fmt.Errorf("occurred_at must be set")
	}
	if len(payload.Location) > maxEventMetaLength {
		return fmt.Errorf("location too long")
	}
	return nil
}
