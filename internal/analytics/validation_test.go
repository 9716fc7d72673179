package analytics

import (
	"strings"
	"testing"
	"time"
)

func validPayload() ActivityEventPayload {
	return ActivityEventPayload{
		Kind:       "payment",
		UserID:     "01J9ZK3V5W8XQ2M4N6P8R0T2V4",
		Status:     "completed",
		Amount:     12.50,
		Currency:   "SAR",
		Location:   "Cafeteria",
		OccurredAt: time.Now().UnixMilli(),
	}
}

func TestValidateActivityEventPayload_Valid(t *testing.T) {
	if err := ValidateActivityEventPayload(validPayload()); err != nil {
		t.Fatalf("expected valid payload, got error: %v", err)
	}
}

func TestValidateActivityEventPayload_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ActivityEventPayload)
	}{
		{"missing kind", func(p *ActivityEventPayload) { p.Kind = "" }},
		{"unknown kind", func(p *ActivityEventPayload) { p.Kind = "login" }},
		{"missing user_id", func(p *ActivityEventPayload) { p.UserID = "" }},
		{"user_id too long", func(p *ActivityEventPayload) { p.UserID = strings.Repeat("a", 65) }},
		{"missing status", func(p *ActivityEventPayload) { p.Status = "" }},
		{"status too long", func(p *ActivityEventPayload) { p.Status = strings.Repeat("x", 33) }},
		{"negative amount", func(p *ActivityEventPayload) { p.Amount = -1 }},
		{"amount on access event", func(p *ActivityEventPayload) {
			p.Kind = "access"
			p.Status = "granted"
			p.Currency = ""
		}},
		{"missing occurred_at", func(p *ActivityEventPayload) { p.OccurredAt = 0 }},
		{"location too long", func(p *ActivityEventPayload) { p.Location = strings.Repeat("l", 129) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := validPayload()
			tt.mutate(&payload)
			if err := ValidateActivityEventPayload(payload); err == nil {
				t.Errorf("expected error for %s, got nil", tt.name)
			}
		})
	}
}

func TestValidateActivityEventPayload_NonPaymentKinds(t *testing.T) {
	tests := []struct {
		kind   string
		status string
	}{
		{"attendance", "check-in"},
		{"attendance", "check-out"},
		{"access", "granted"},
		{"access", "denied"},
	}

	for _, tt := range tests {
		t.Run(tt.kind+"/"+tt.status, func(t *testing.T) {
			payload := validPayload()
			payload.Kind = tt.kind
			payload.Status = tt.status
			payload.Amount = 0
			payload.Currency = ""
			if err := ValidateActivityEventPayload(payload); err != nil {
				t.Errorf("expected valid payload, got error: %v", err)
			}
		})
	}
}
