package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/palmgate/palmgate/internal/cache"
	"github.com/palmgate/palmgate/internal/metrics"
	"github.com/palmgate/palmgate/internal/model"
	"github.com/palmgate/palmgate/internal/repository"
)

// Linking errors.
var (
	ErrTokenNotFound     = errors.New("registration token not found")
	ErrTokenUsed         = errors.New("registration token already used")
	ErrTokenExpired      = errors.New("registration token expired")
	ErrPalmAlreadyLinked = errors.New("palm scan already linked to another account")
	ErrInvalidCardNumber = errors.New("invalid card number")
	ErrInvalidCardExpiry = errors.New("invalid card expiry")
	ErrMissingCardholder = errors.New("cardholder name is required")
)

const (
	minCardDigits = 13
	maxCardDigits = 19
)

// LinkingService redeems registration tokens and attaches palm scans and
// payment cards to user accounts.
type LinkingService struct {
	repo    *repository.Repository
	cache   *cache.Cache
	metrics metrics.Recorder
}

// NewLinkingService creates a new LinkingService.
func NewLinkingService(repo *repository.Repository, c *cache.Cache, recorder metrics.Recorder) *LinkingService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &LinkingService{
		repo:    repo,
		cache:   c,
		metrics: recorder,
	}
}

// TokenPreview is what the link page shows before the user commits:
// enough to render the form, nothing that identifies the palm scan.
type TokenPreview struct {
	Status    model.TokenStatus
	ExpiresAt time.Time
}

// Peek inspects a registration token without redeeming it.
func (s *LinkingService) Peek(ctx context.Context, token string) (*TokenPreview, error) {
	t, err := s.repo.GetRegistrationToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}

	return &TokenPreview{
		Status:    t.Status(time.Now().UTC()),
		ExpiresAt: t.ExpiresAt,
	}, nil
}

// LinkInput defines input for redeeming a registration token. Expiry is
// the card form's "MM/YY" string.
type LinkInput struct {
	Token          string
	UserID         string
	CardNumber     string
	CardholderName string
	Expiry         string
}

// LinkOutput is the result of a completed linking.
type LinkOutput struct {
	Token *model.RegistrationToken
	Card  *model.PaymentCard
}

// Link redeems a registration token for the user: the palm scan is attached
// to their profile and the submitted card is tokenized and stored as the
// default, all atomically. A token redeems at most once; concurrent attempts
// leave exactly one winner.
func (s *LinkingService) Link(ctx context.Context, input LinkInput) (*LinkOutput, error) {
	card, err := s.buildCard(input)
	if err != nil {
		s.metrics.IncLinking("rejected")
		return nil, err
	}

	now := time.Now().UTC()
	token, err := s.repo.LinkPalm(ctx, repository.LinkPalmParams{
		Token:  input.Token,
		UserID: input.UserID,
		Card:   card,
		Now:    now,
	})
	if err != nil {
		s.metrics.IncLinking("rejected")
		switch {
		case errors.Is(err, repository.ErrTokenNotFound):
			return nil, ErrTokenNotFound
		case errors.Is(err, repository.ErrTokenUsed):
			return nil, ErrTokenUsed
		case errors.Is(err, repository.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, repository.ErrPalmAlreadyLinked):
			return nil, ErrPalmAlreadyLinked
		case errors.Is(err, repository.ErrProfileNotFound):
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to link palm: %w", err)
	}

	s.metrics.IncLinking("linked")

	// Clear any negative cache entry left by terminals that saw this palm
	// before it was linked.
	if err := s.cache.DeletePalmProfile(ctx, token.PalmScanID); err != nil {
		_ = err // eventual consistency is acceptable
	}

	card.UserID = input.UserID
	card.CreatedAt = now
	card.UpdatedAt = now
	return &LinkOutput{Token: token, Card: card}, nil
}

// buildCard validates the card submission and produces the tokenized card.
// Only the trailing four digits of the number survive validation.
func (s *LinkingService) buildCard(input LinkInput) (*model.PaymentCard, error) {
	digits := countDigits(input.CardNumber)
	if digits < minCardDigits || digits > maxCardDigits {
		return nil, ErrInvalidCardNumber
	}

	month, year, err := parseCardExpiry(input.Expiry)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if year < now.Year() || (year == now.Year() && month < int(now.Month())) {
		return nil, ErrInvalidCardExpiry
	}

	if strings.TrimSpace(input.CardholderName) == "" {
		return nil, ErrMissingCardholder
	}

	return &model.PaymentCard{
		ID:             ulid.Make().String(),
		CardToken:      "tok_" + randHex(12),
		LastFour:       model.LastFourOf(input.CardNumber),
		CardBrand:      model.DetectBrand(input.CardNumber),
		CardholderName: strings.TrimSpace(input.CardholderName),
		ExpiryMonth:    month,
		ExpiryYear:     year,
		IsDefault:      true,
	}, nil
}

// parseCardExpiry parses the card form's "MM/YY" expiry. The two-digit
// year maps to 2000+YY.
func parseCardExpiry(expiry string) (month, year int, err error) {
	s := strings.TrimSpace(expiry)
	if len(s) != 5 || s[2] != '/' {
		return 0, 0, ErrInvalidCardExpiry
	}
	mm, err := strconv.Atoi(s[:2])
	if err != nil || mm < 1 || mm > 12 {
		return 0, 0, ErrInvalidCardExpiry
	}
	yy, err := strconv.Atoi(s[3:])
	if err != nil || yy < 0 {
		return 0, 0, ErrInvalidCardExpiry
	}
	return mm, 2000 + yy, nil
}

// countDigits counts ASCII digits, ignoring spaces and separators.
func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}
