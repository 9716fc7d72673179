package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/palmgate/palmgate/internal/analytics"
	"github.com/palmgate/palmgate/internal/metrics"
	"github.com/palmgate/palmgate/internal/model"
	"github.com/palmgate/palmgate/internal/repository"
)

// Payment errors.
var (
	ErrInvalidAmount  = errors.New("amount must be positive")
	ErrAmountTooLarge = errors.New("amount exceeds the per-charge limit")
	ErrNoDefaultCard  = errors.New("no default payment card on file")
)

// maxChargeAmount caps a single palm-verified charge.
const maxChargeAmount = 10000

// PaymentService handles palm-verified charges at checkout terminals.
type PaymentService struct {
	verifier *PalmVerifier
	repo     *repository.Repository
	metrics  metrics.Recorder
	events   *analytics.Publisher
}

// NewPaymentService creates a new PaymentService. The publisher may be nil,
// in which case no activity events are emitted.
func NewPaymentService(verifier *PalmVerifier, repo *repository.Repository, recorder metrics.Recorder, events *analytics.Publisher) *PaymentService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &PaymentService{
		verifier: verifier,
		repo:     repo,
		metrics:  recorder,
		events:   events,
	}
}

// ChargeInput defines input for a palm-verified charge.
type ChargeInput struct {
	PalmScanID  string
	Amount      float64
	Currency    string
	Merchant    string
	Description string
}

// ChargeOutput is the result of a charge attempt.
type ChargeOutput struct {
	Transaction *model.Transaction
	Profile     *model.Profile
	Card        *model.PaymentCard
}

// Charge resolves the palm scan to a profile and charges the user's default
// card. A missing card records a failed transaction so the attempt shows up
// in the user's history.
func (s *PaymentService) Charge(ctx context.Context, input ChargeInput) (*ChargeOutput, error) {
	if input.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if input.Amount > maxChargeAmount {
		return nil, ErrAmountTooLarge
	}

	currency := input.Currency
	if currency == "" {
		currency = model.DefaultCurrency
	}

	profile, err := s.verifier.Resolve(ctx, input.PalmScanID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	tx := &model.Transaction{
		ID:          ulid.Make().String(),
		UserID:      profile.UserID,
		Type:        model.TransactionTypePayment,
		Amount:      input.Amount,
		Currency:    currency,
		Merchant:    input.Merchant,
		Description: input.Description,
		Timestamp:   now,
		CreatedAt:   now,
	}

	card, err := s.repo.GetDefaultCard(ctx, profile.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrCardNotFound) {
			tx.Status = model.TransactionStatusFailed
			if createErr := s.repo.CreateTransaction(ctx, tx); createErr != nil {
				return nil, fmt.Errorf("failed to record declined payment: %w", createErr)
			}
			s.metrics.IncPayment(model.TransactionStatusFailed)
			if s.events != nil {
				s.events.PublishAsync(analytics.PaymentEvent(profile.UserID, tx.Status, tx.Amount, tx.Currency, tx.Merchant))
			}
			return nil, ErrNoDefaultCard
		}
		return nil, err
	}

	// The demo charges against a local card token; a real deployment would
	// call the payment gateway here.
	tx.Status = model.TransactionStatusCompleted
	if err := s.repo.CreateTransaction(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}

	s.metrics.IncPayment(model.TransactionStatusCompleted)
	if s.events != nil {
		s.events.PublishAsync(analytics.PaymentEvent(profile.UserID, tx.Status, tx.Amount, tx.Currency, tx.Merchant))
	}

	return &ChargeOutput{
		Transaction: tx,
		Profile:     profile,
		Card:        card,
	}, nil
}
