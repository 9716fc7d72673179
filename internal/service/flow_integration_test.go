//go:build integration

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/palmgate/palmgate/internal/cache"
	"github.com/palmgate/palmgate/internal/metrics"
	"github.com/palmgate/palmgate/internal/model"
	"github.com/palmgate/palmgate/internal/qr"
	"github.com/palmgate/palmgate/internal/repository"
	"github.com/palmgate/palmgate/internal/scanner"
	"github.com/palmgate/palmgate/internal/testutil"
)

// ============================================================================
// Full Flow Integration Tests
//
// Exercises the complete journey: kiosk capture, QR peek, account linking,
// then palm-verified payment, attendance and access at terminals.
// ============================================================================

func TestIntegrationFlow_CaptureLinkCharge(t *testing.T) {
	ctx, env := newFlowTestEnv(t)

	// Kiosk captures a palm and mints a token.
	capture, err := env.enrollment.Capture(ctx)
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if capture.Token.Token == "" || capture.Token.PalmScanID == "" {
		t.Fatal("capture should mint a token and palm scan ID")
	}

	// The QR payload round-trips back to the token.
	parsed, err := qr.ParseToken(capture.LinkURL)
	if err != nil {
		t.Fatalf("ParseToken failed: %v", err)
	}
	if parsed != capture.Token.Token {
		t.Fatalf("QR round-trip mismatch: got %q, want %q", parsed, capture.Token.Token)
	}

	// Peek shows the token as valid without consuming it.
	preview, err := env.linking.Peek(ctx, parsed)
	if err != nil {
		t.Fatalf("Peek failed: %v", err)
	}
	if preview.Status != model.TokenStatusValid {
		t.Fatalf("expected valid token, got %q", preview.Status)
	}

	// The user signs in on their phone and links.
	userID, err := testutil.CreateTestUser(ctx, env.repo.Pool(), "flow@example.com")
	if err != nil {
		t.Fatalf("CreateTestUser failed: %v", err)
	}

	out, err := env.linking.Link(ctx, LinkInput{
		Token:          parsed,
		UserID:         userID,
		CardNumber:     "4242424242424242",
		CardholderName: "Flow Tester",
		Expiry:         futureExpiry(2),
	})
	if err != nil {
		t.Fatalf("Link failed: %v", err)
	}
	if !out.Token.IsUsed {
		t.Error("token should be used after linking")
	}

	// A second redemption of the same token fails.
	if _, err := env.linking.Link(ctx, LinkInput{
		Token:          parsed,
		UserID:         userID,
		CardNumber:     "4242424242424242",
		CardholderName: "Flow Tester",
		Expiry:         futureExpiry(2),
	}); !errors.Is(err, ErrTokenUsed) {
		t.Errorf("expected ErrTokenUsed on second link, got %v", err)
	}

	// Checkout terminal charges the linked palm.
	charge, err := env.payment.Charge(ctx, ChargeInput{
		PalmScanID: capture.Token.PalmScanID,
		Amount:     42.50,
		Merchant:   "Cafeteria",
	})
	if err != nil {
		t.Fatalf("Charge failed: %v", err)
	}
	if charge.Transaction.Status != model.TransactionStatusCompleted {
		t.Errorf("expected completed transaction, got %q", charge.Transaction.Status)
	}
	if charge.Transaction.Currency != model.DefaultCurrency {
		t.Errorf("expected default currency, got %q", charge.Transaction.Currency)
	}
	if charge.Card.LastFour != "4242" {
		t.Errorf("charged card LastFour = %q", charge.Card.LastFour)
	}

	// Second charge hits the palm cache.
	before := env.cacheRecorder.Snapshot().PalmCacheHits
	if _, err := env.payment.Charge(ctx, ChargeInput{
		PalmScanID: capture.Token.PalmScanID,
		Amount:     10,
	}); err != nil {
		t.Fatalf("second Charge failed: %v", err)
	}
	if env.cacheRecorder.Snapshot().PalmCacheHits <= before {
		t.Error("second charge should be served from the palm cache")
	}
}

func TestIntegrationFlow_UnrecognizedPalm(t *testing.T) {
	ctx, env := newFlowTestEnv(t)

	_, err := env.payment.Charge(ctx, ChargeInput{
		PalmScanID: "palm_0_unknown",
		Amount:     5,
	})
	if !errors.Is(err, ErrPalmNotRecognized) {
		t.Fatalf("expected ErrPalmNotRecognized, got %v", err)
	}

	// The miss is negatively cached; the second attempt skips the DB.
	isNeg, err := env.cache.IsNegativelyCached(ctx, "palm_0_unknown")
	if err != nil {
		t.Fatalf("IsNegativelyCached failed: %v", err)
	}
	if !isNeg {
		t.Error("unknown palm should be negatively cached")
	}
}

func TestIntegrationFlow_ChargeWithoutCard(t *testing.T) {
	ctx, env := newFlowTestEnv(t)

	// Link without going through the service: stamp a palm directly.
	userID, err := testutil.CreateTestUser(ctx, env.repo.Pool(), "nocard@example.com")
	if err != nil {
		t.Fatalf("CreateTestUser failed: %v", err)
	}
	palmScanID := "palm_1_nocard"
	if _, err := env.repo.Pool().Exec(ctx,
		"UPDATE profiles SET palm_scan_id = $1 WHERE user_id = $2", palmScanID, userID,
	); err != nil {
		t.Fatalf("stamp palm: %v", err)
	}

	_, err = env.payment.Charge(ctx, ChargeInput{PalmScanID: palmScanID, Amount: 5})
	if !errors.Is(err, ErrNoDefaultCard) {
		t.Fatalf("expected ErrNoDefaultCard, got %v", err)
	}

	// The declined attempt shows up in the user's history.
	list, err := env.wallet.ListTransactions(ctx, ListTransactionsInput{UserID: userID})
	if err != nil {
		t.Fatalf("ListTransactions failed: %v", err)
	}
	if len(list.Transactions) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(list.Transactions))
	}
	if list.Transactions[0].Status != model.TransactionStatusFailed {
		t.Errorf("expected failed transaction, got %q", list.Transactions[0].Status)
	}
}

func TestIntegrationFlow_AttendanceAndAccess(t *testing.T) {
	ctx, env := newFlowTestEnv(t)

	userID, err := testutil.CreateTestUser(ctx, env.repo.Pool(), "door@example.com")
	if err != nil {
		t.Fatalf("CreateTestUser failed: %v", err)
	}
	palmScanID := "palm_2_door"
	if _, err := env.repo.Pool().Exec(ctx,
		"UPDATE profiles SET palm_scan_id = $1 WHERE user_id = $2", palmScanID, userID,
	); err != nil {
		t.Fatalf("stamp palm: %v", err)
	}

	// Check in at the attendance terminal.
	rec, err := env.attendance.Record(ctx, RecordInput{
		PalmScanID: palmScanID,
		Type:       model.AttendanceCheckIn,
		Location:   "Main Office",
	})
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if rec.Record.UserID != userID {
		t.Errorf("attendance UserID mismatch: %q", rec.Record.UserID)
	}

	// Baseline role: main entrance opens, server room does not.
	dec, err := env.access.Check(ctx, CheckInput{PalmScanID: palmScanID, Area: model.AreaMainEntrance})
	if err != nil {
		t.Fatalf("Check (main entrance) failed: %v", err)
	}
	if !dec.Granted {
		t.Error("baseline user should enter the main entrance")
	}

	dec, err = env.access.Check(ctx, CheckInput{PalmScanID: palmScanID, Area: model.AreaServerRoom})
	if err != nil {
		t.Fatalf("Check (server room) failed: %v", err)
	}
	if dec.Granted {
		t.Error("baseline user should be denied the server room")
	}
	if dec.Reason == "" {
		t.Error("denied decision should carry a reason")
	}

	// Grant admin; the server room opens.
	if err := env.repo.AssignRole(ctx, &model.UserRole{
		ID:        ulid.Make().String(),
		UserID:    userID,
		Role:      model.RoleAdmin,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("AssignRole failed: %v", err)
	}

	dec, err = env.access.Check(ctx, CheckInput{PalmScanID: palmScanID, Area: model.AreaServerRoom})
	if err != nil {
		t.Fatalf("Check (server room, admin) failed: %v", err)
	}
	if !dec.Granted {
		t.Error("admin should enter the server room")
	}

	// Both decisions are in the audit log.
	logs, err := env.repo.ListAccessLogsByUserID(ctx, userID, 10)
	if err != nil {
		t.Fatalf("ListAccessLogsByUserID failed: %v", err)
	}
	if len(logs) != 3 {
		t.Errorf("expected 3 access log rows, got %d", len(logs))
	}
}

func TestIntegrationFlow_ScanFailure(t *testing.T) {
	ctx, env := newFlowTestEnv(t)

	failing := NewEnrollmentService(env.repo, &scanner.Static{Outcome: scanner.Outcome{Success: false}}, "https://palmgate.test", nil)

	_, err := failing.Capture(ctx)
	if !errors.Is(err, ErrScanFailed) {
		t.Fatalf("expected ErrScanFailed, got %v", err)
	}
}

// ============================================================================
// Test Environment Setup
// ============================================================================

type flowTestEnv struct {
	repo          *repository.Repository
	cache         *cache.Cache
	cacheRecorder *metrics.InMemoryRecorder

	enrollment *EnrollmentService
	linking    *LinkingService
	payment    *PaymentService
	attendance *AttendanceService
	access     *AccessService
	wallet     *WalletService
}

func newFlowTestEnv(t *testing.T) (context.Context, *flowTestEnv) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	ctx := context.Background()
	dbURL := testutil.RequireEnv(t, "DATABASE_URL")
	redisURL := testutil.RequireEnv(t, "REDIS_URL")

	repo, err := repository.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(repo.Close)

	c, err := cache.New(ctx, redisURL)
	if err != nil {
		t.Fatalf("connect redis: %v", err)
	}
	t.Cleanup(func() {
		_ = c.Close()
	})

	unlock, err := testutil.AcquireDBLock(ctx, repo.Pool())
	if err != nil {
		t.Fatalf("acquire db lock: %v", err)
	}
	t.Cleanup(func() {
		_ = unlock()
	})

	if err := testutil.ResetAllSchemas(ctx, repo.Pool()); err != nil {
		t.Fatalf("reset schemas: %v", err)
	}
	if err := testutil.FlushRedis(ctx, c.Client()); err != nil {
		t.Fatalf("flush redis: %v", err)
	}

	recorder := metrics.NewInMemory()
	verifier := NewPalmVerifier(repo, c, recorder)

	return ctx, &flowTestEnv{
		repo:          repo,
		cache:         c,
		cacheRecorder: recorder,
		enrollment:    NewEnrollmentService(repo, &scanner.Static{Outcome: scanner.Outcome{Success: true, Quality: 0.95}}, "https://palmgate.test", recorder),
		linking:       NewLinkingService(repo, c, recorder),
		payment:       NewPaymentService(verifier, repo, recorder, nil),
		attendance:    NewAttendanceService(verifier, repo, recorder, nil),
		access:        NewAccessService(verifier, repo, recorder, nil),
		wallet:        NewWalletService(repo, c),
	}
}
