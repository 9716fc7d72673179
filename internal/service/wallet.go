package service

import (
	"context"
	"errors"
	"time"

	"github.com/palmgate/palmgate/internal/cache"
	"github.com/palmgate/palmgate/internal/model"
	"github.com/palmgate/palmgate/internal/repository"
)

// Wallet errors.
var (
	ErrCardNotFound    = errors.New("payment card not found")
	ErrProfileNotFound = errors.New("profile not found")
	ErrInvalidCursor   = errors.New("invalid pagination cursor")
)

// WalletService serves the signed-in user's own data: cards, transactions,
// attendance history, profile.
type WalletService struct {
	repo  *repository.Repository
	cache *cache.Cache
}

// NewWalletService creates a new WalletService.
func NewWalletService(repo *repository.Repository, c *cache.Cache) *WalletService {
	return &WalletService{repo: repo, cache: c}
}

// GetProfile retrieves the user's profile.
func (s *WalletService) GetProfile(ctx context.Context, userID string) (*model.Profile, error) {
	profile, err := s.repo.GetProfileByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return profile, nil
}

// ListCards retrieves the user's payment cards, default first.
func (s *WalletService) ListCards(ctx context.Context, userID string) ([]*model.PaymentCard, error) {
	return s.repo.ListCardsByUserID(ctx, userID)
}

// SetDefaultCard makes the given card the user's default.
func (s *WalletService) SetDefaultCard(ctx context.Context, userID, cardID string) error {
	err := s.repo.SetDefaultCard(ctx, userID, cardID, time.Now().UTC())
	if err != nil {
		if errors.Is(err, repository.ErrCardNotFound) {
			return ErrCardNotFound
		}
		return err
	}
	return nil
}

// DeleteCard removes a card owned by the user.
func (s *WalletService) DeleteCard(ctx context.Context, userID, cardID string) error {
	err := s.repo.DeleteCard(ctx, userID, cardID)
	if err != nil {
		if errors.Is(err, repository.ErrCardNotFound) {
			return ErrCardNotFound
		}
		return err
	}
	return nil
}

// ListTransactionsInput defines input for listing transactions.
type ListTransactionsInput struct {
	UserID string
	Type   string
	Cursor string
	Limit  int
}

// ListTransactionsOutput defines output for listing transactions.
type ListTransactionsOutput struct {
	Transactions []*model.Transaction
	NextCursor   string
	HasMore      bool
}

// ListTransactions retrieves a page of the user's transactions.
func (s *WalletService) ListTransactions(ctx context.Context, input ListTransactionsInput) (*ListTransactionsOutput, error) {
	if input.Limit <= 0 || input.Limit > 100 {
		input.Limit = 20
	}

	filter := repository.TransactionFilter{
		UserID: input.UserID,
		Type:   input.Type,
	}

	txs, nextCursor, err := s.repo.ListTransactions(ctx, filter, input.Cursor, input.Limit)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidCursor) {
			return nil, ErrInvalidCursor
		}
		return nil, err
	}

	return &ListTransactionsOutput{
		Transactions: txs,
		NextCursor:   nextCursor,
		HasMore:      nextCursor != "",
	}, nil
}

// ListAttendanceInput defines input for listing attendance records.
type ListAttendanceInput struct {
	UserID string
	Cursor string
	Limit  int
}

// ListAttendanceOutput defines output for listing attendance records.
type ListAttendanceOutput struct {
	Records    []*model.AttendanceRecord
	NextCursor string
	HasMore    bool
}

// ListAttendance retrieves a page of the user's attendance records.
func (s *WalletService) ListAttendance(ctx context.Context, input ListAttendanceInput) (*ListAttendanceOutput, error) {
	if input.Limit <= 0 || input.Limit > 100 {
		input.Limit = 20
	}

	records, nextCursor, err := s.repo.ListAttendanceRecords(ctx, input.UserID, input.Cursor, input.Limit)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidCursor) {
			return nil, ErrInvalidCursor
		}
		return nil, err
	}

	return &ListAttendanceOutput{
		Records:    records,
		NextCursor: nextCursor,
		HasMore:    nextCursor != "",
	}, nil
}
