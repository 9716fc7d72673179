// Package service provides business logic for the application.
package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/palmgate/palmgate/internal/metrics"
	"github.com/palmgate/palmgate/internal/model"
	"github.com/palmgate/palmgate/internal/qr"
	"github.com/palmgate/palmgate/internal/repository"
	"github.com/palmgate/palmgate/internal/scanner"
)

// Enrollment errors.
var (
	ErrScanFailed         = errors.New("palm scan failed")
	ErrScannerUnavailable = errors.New("palm scanner unavailable")
)

// EnrollmentService handles palm capture at enrollment kiosks.
type EnrollmentService struct {
	repo    *repository.Repository
	scanner scanner.Scanner
	baseURL string
	metrics metrics.Recorder
}

// NewEnrollmentService creates a new EnrollmentService.
func NewEnrollmentService(repo *repository.Repository, scn scanner.Scanner, baseURL string, recorder metrics.Recorder) *EnrollmentService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &EnrollmentService{
		repo:    repo,
		scanner: scn,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		metrics: recorder,
	}
}

// CaptureOutput is the result of a successful palm capture.
type CaptureOutput struct {
	Token   *model.RegistrationToken
	LinkURL string
	Quality float64
}

// Capture runs a palm scan and, on success, mints a single-use registration
// token and the QR link URL the kiosk displays. The palm scan identifier is
// not attached to any account until the token is redeemed.
func (s *EnrollmentService) Capture(ctx context.Context) (*CaptureOutput, error) {
	outcome, err := s.scanner.BeginCapture(ctx)
	if err != nil {
		s.metrics.IncEnrollment("scan_failed")
		if errors.Is(err, scanner.ErrDeviceUnavailable) {
			return nil, ErrScannerUnavailable
		}
		return nil, fmt.Errorf("palm capture: %w", err)
	}

	if !outcome.Success {
		s.metrics.IncEnrollment("scan_failed")
		return nil, ErrScanFailed
	}

	now := time.Now().UTC()
	token := &model.RegistrationToken{
		ID:         ulid.Make().String(),
		Token:      generateRegistrationToken(),
		PalmScanID: generatePalmScanID(now),
		CreatedAt:  now,
		ExpiresAt:  now.Add(model.RegistrationTokenTTL),
	}

	if err := s.repo.CreateRegistrationToken(ctx, token); err != nil {
		return nil, fmt.Errorf("failed to store registration token: %w", err)
	}

	s.metrics.IncEnrollment("captured")

	return &CaptureOutput{
		Token:   token,
		LinkURL: qr.BuildLinkURL(s.baseURL, token.Token),
		Quality: outcome.Quality,
	}, nil
}

// generateRegistrationToken mints an opaque single-use token value.
func generateRegistrationToken() string {
	return "reg_" + randHex(16)
}

// generatePalmScanID mints a palm scan identifier. The timestamp prefix keeps
// identifiers sortable for operator debugging; the random suffix makes them
// unguessable.
func generatePalmScanID(now time.Time) string {
	return fmt.Sprintf("palm_%d_%s", now.UnixMilli(), randHex(8))
}

// randHex returns n random bytes hex-encoded (2n characters).
func randHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand never fails on supported platforms
		panic(fmt.Sprintf("crypto/rand: %v", err))
	}
	return hex.EncodeToString(b)
}
