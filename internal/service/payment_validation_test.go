package service

import (
	"context"
	"errors"
	"testing"
)

func TestChargeValidationErrors(t *testing.T) {
	svc := &PaymentService{}

	tests := []struct {
		name    string
		input   ChargeInput
		wantErr error
	}{
		{
			name:    "zero_amount",
			input:   ChargeInput{PalmScanID: "palm_1", Amount: 0},
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "negative_amount",
			input:   ChargeInput{PalmScanID: "palm_1", Amount: -5},
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "over_limit",
			input:   ChargeInput{PalmScanID: "palm_1", Amount: maxChargeAmount + 1},
			wantErr: ErrAmountTooLarge,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := svc.Charge(context.Background(), test.input)
			if !errors.Is(err, test.wantErr) {
				t.Fatalf("expected %v, got %v", test.wantErr, err)
			}
		})
	}
}

func TestRecordAttendanceValidationErrors(t *testing.T) {
	svc := &AttendanceService{}

	_, err := svc.Record(context.Background(), RecordInput{
		PalmScanID: "palm_1",
		Type:       "lunch",
	})
	if !errors.Is(err, ErrInvalidAttendanceType) {
		t.Fatalf("expected ErrInvalidAttendanceType, got %v", err)
	}
}

func TestAccessCheckValidationErrors(t *testing.T) {
	svc := &AccessService{}

	_, err := svc.Check(context.Background(), CheckInput{
		PalmScanID: "palm_1",
		Area:       "rooftop",
	})
	if !errors.Is(err, ErrUnknownArea) {
		t.Fatalf("expected ErrUnknownArea, got %v", err)
	}
}
