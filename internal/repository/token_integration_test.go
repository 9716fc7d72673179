//go:build integration

package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/palmgate/palmgate/internal/testutil"
)

// ============================================================================
// Registration Token Repository Integration Tests
// ============================================================================

func TestIntegrationTokenRepository_Create(t *testing.T) {
	ctx, repo := newTokenTestEnv(t)

	token := testutil.NewTestRegistrationToken(t)

	if err := repo.CreateRegistrationToken(ctx, token); err != nil {
		t.Fatalf("CreateRegistrationToken failed: %v", err)
	}

	retrieved, err := repo.GetRegistrationToken(ctx, token.Token)
	if err != nil {
		t.Fatalf("GetRegistrationToken failed: %v", err)
	}

	if retrieved.PalmScanID != token.PalmScanID {
		t.Errorf("PalmScanID mismatch: got %q, want %q", retrieved.PalmScanID, token.PalmScanID)
	}
	if retrieved.IsUsed {
		t.Error("token should not be used at creation")
	}
	if retrieved.UserID != nil {
		t.Error("UserID should be nil at creation")
	}
}

func TestIntegrationTokenRepository_Create_Duplicate(t *testing.T) {
	ctx, repo := newTokenTestEnv(t)

	token1 := testutil.NewTestRegistrationToken(t)
	token2 := testutil.NewTestRegistrationToken(t)
	token2.Token = token1.Token // Different ID, same opaque value

	if err := repo.CreateRegistrationToken(ctx, token1); err != nil {
		t.Fatalf("CreateRegistrationToken (first) failed: %v", err)
	}

	err := repo.CreateRegistrationToken(ctx, token2)
	if !errors.Is(err, ErrTokenExists) {
		t.Errorf("Expected ErrTokenExists, got: %v", err)
	}
}

func TestIntegrationTokenRepository_Get_NotFound(t *testing.T) {
	ctx, repo := newTokenTestEnv(t)

	_, err := repo.GetRegistrationToken(ctx, "reg_nonexistent")
	if !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("Expected ErrTokenNotFound, got: %v", err)
	}
}

func TestIntegrationTokenRepository_LinkPalm(t *testing.T) {
	ctx, repo := newTokenTestEnv(t)

	userID, err := testutil.CreateTestUser(ctx, repo.Pool(), "link@example.com")
	if err != nil {
		t.Fatalf("CreateTestUser failed: %v", err)
	}

	token := testutil.NewTestRegistrationToken(t)
	if err := repo.CreateRegistrationToken(ctx, token); err != nil {
		t.Fatalf("CreateRegistrationToken failed: %v", err)
	}

	card := testutil.NewTestCard(t, userID)
	redeemed, err := repo.LinkPalm(ctx, LinkPalmParams{
		Token:  token.Token,
		UserID: userID,
		Card:   card,
		Now:    time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("LinkPalm failed: %v", err)
	}

	if !redeemed.IsUsed {
		t.Error("token should be marked used after linking")
	}
	if redeemed.UserID == nil || *redeemed.UserID != userID {
		t.Error("token should carry the redeeming user ID")
	}
	if redeemed.LinkedAt == nil {
		t.Error("LinkedAt should be set after linking")
	}

	// Profile carries the palm scan.
	profile, err := repo.GetProfileByPalmScanID(ctx, token.PalmScanID)
	if err != nil {
		t.Fatalf("GetProfileByPalmScanID failed: %v", err)
	}
	if profile.UserID != userID {
		t.Errorf("profile UserID mismatch: got %q, want %q", profile.UserID, userID)
	}

	// Card was inserted as default.
	defaultCard, err := repo.GetDefaultCard(ctx, userID)
	if err != nil {
		t.Fatalf("GetDefaultCard failed: %v", err)
	}
	if defaultCard.LastFour != card.LastFour {
		t.Errorf("LastFour mismatch: got %q, want %q", defaultCard.LastFour, card.LastFour)
	}
}

func TestIntegrationTokenRepository_LinkPalm_AlreadyUsed(t *testing.T) {
	ctx, repo := newTokenTestEnv(t)

	userID, err := testutil.CreateTestUser(ctx, repo.Pool(), "used@example.com")
	if err != nil {
		t.Fatalf("CreateTestUser failed: %v", err)
	}

	token := testutil.NewTestRegistrationToken(t)
	if err := repo.CreateRegistrationToken(ctx, token); err != nil {
		t.Fatalf("CreateRegistrationToken failed: %v", err)
	}

	params := LinkPalmParams{
		Token:  token.Token,
		UserID: userID,
		Card:   testutil.NewTestCard(t, userID),
		Now:    time.Now().UTC(),
	}

	if _, err := repo.LinkPalm(ctx, params); err != nil {
		t.Fatalf("LinkPalm (first) failed: %v", err)
	}

	_, err = repo.LinkPalm(ctx, params)
	if !errors.Is(err, ErrTokenUsed) {
		t.Errorf("Expected ErrTokenUsed on second redemption, got: %v", err)
	}
}

func TestIntegrationTokenRepository_LinkPalm_Expired(t *testing.T) {
	ctx, repo := newTokenTestEnv(t)

	userID, err := testutil.CreateTestUser(ctx, repo.Pool(), "expired@example.com")
	if err != nil {
		t.Fatalf("CreateTestUser failed: %v", err)
	}

	token := testutil.NewTestRegistrationToken(t)
	token.ExpiresAt = time.Now().UTC().Add(-1 * time.Hour)
	if err := repo.CreateRegistrationToken(ctx, token); err != nil {
		t.Fatalf("CreateRegistrationToken failed: %v", err)
	}

	_, err = repo.LinkPalm(ctx, LinkPalmParams{
		Token:  token.Token,
		UserID: userID,
		Now:    time.Now().UTC(),
	})
	if !errors.Is(err, ErrTokenExpired) {
		t.Errorf("Expected ErrTokenExpired, got: %v", err)
	}

	// The row is intact; nothing was written.
	retrieved, err := repo.GetRegistrationToken(ctx, token.Token)
	if err != nil {
		t.Fatalf("GetRegistrationToken failed: %v", err)
	}
	if retrieved.IsUsed {
		t.Error("expired token should not be marked used")
	}
}

func TestIntegrationTokenRepository_LinkPalm_NoProfile(t *testing.T) {
	ctx, repo := newTokenTestEnv(t)

	userID, err := testutil.CreateTestUserWithoutProfile(ctx, repo.Pool(), "noprofile@example.com")
	if err != nil {
		t.Fatalf("CreateTestUserWithoutProfile failed: %v", err)
	}

	token := testutil.NewTestRegistrationToken(t)
	if err := repo.CreateRegistrationToken(ctx, token); err != nil {
		t.Fatalf("CreateRegistrationToken failed: %v", err)
	}

	card := testutil.NewTestCard(t, userID)
	_, err = repo.LinkPalm(ctx, LinkPalmParams{
		Token:  token.Token,
		UserID: userID,
		Card:   card,
		Now:    time.Now().UTC(),
	})
	if !errors.Is(err, ErrProfileNotFound) {
		t.Fatalf("Expected ErrProfileNotFound, got: %v", err)
	}

	// The whole redemption rolled back: the token is still redeemable and
	// no card was written.
	retrieved, err := repo.GetRegistrationToken(ctx, token.Token)
	if err != nil {
		t.Fatalf("GetRegistrationToken failed: %v", err)
	}
	if retrieved.IsUsed {
		t.Error("token must not be burned when the profile is missing")
	}
	if _, err := repo.GetDefaultCard(ctx, userID); !errors.Is(err, ErrCardNotFound) {
		t.Errorf("Expected no card for the user, got: %v", err)
	}
}

func TestIntegrationTokenRepository_LinkPalm_Concurrent(t *testing.T) {
	ctx, repo := newTokenTestEnv(t)

	token := testutil.NewTestRegistrationToken(t)
	if err := repo.CreateRegistrationToken(ctx, token); err != nil {
		t.Fatalf("CreateRegistrationToken failed: %v", err)
	}

	const concurrency = 5
	userIDs := make([]string, concurrency)
	for i := range userIDs {
		userID, err := testutil.CreateTestUser(ctx, repo.Pool(), testutil.UniqueID("race")+"@example.com")
		if err != nil {
			t.Fatalf("CreateTestUser failed: %v", err)
		}
		userIDs[i] = userID
	}

	var wg sync.WaitGroup
	results := make([]error, concurrency)
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = repo.LinkPalm(ctx, LinkPalmParams{
				Token:  token.Token,
				UserID: userIDs[i],
				Card:   testutil.NewTestCard(t, userIDs[i]),
				Now:    time.Now().UTC(),
			})
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range results {
		if err == nil {
			successes++
		} else if !errors.Is(err, ErrTokenUsed) {
			t.Errorf("unexpected error from concurrent redemption: %v", err)
		}
	}
	if successes != 1 {
		t.Errorf("exactly one redemption should succeed, got %d", successes)
	}
}

func TestIntegrationTokenRepository_DeleteExpiredUnused(t *testing.T) {
	ctx, repo := newTokenTestEnv(t)

	now := time.Now().UTC()

	expired := testutil.NewTestRegistrationToken(t)
	expired.ExpiresAt = now.Add(-1 * time.Hour)
	if err := repo.CreateRegistrationToken(ctx, expired); err != nil {
		t.Fatalf("CreateRegistrationToken (expired) failed: %v", err)
	}

	fresh := testutil.NewTestRegistrationToken(t)
	if err := repo.CreateRegistrationToken(ctx, fresh); err != nil {
		t.Fatalf("CreateRegistrationToken (fresh) failed: %v", err)
	}

	deleted, err := repo.DeleteExpiredUnusedTokens(ctx, now)
	if err != nil {
		t.Fatalf("DeleteExpiredUnusedTokens failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("Expected 1 deleted token, got %d", deleted)
	}

	if _, err := repo.GetRegistrationToken(ctx, expired.Token); !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("Expected expired token to be gone, got: %v", err)
	}
	if _, err := repo.GetRegistrationToken(ctx, fresh.Token); err != nil {
		t.Errorf("Fresh token should survive the sweep: %v", err)
	}
}

// ============================================================================
// Test Environment Setup
// ============================================================================

func newTokenTestEnv(t *testing.T) (context.Context, *Repository) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	ctx := context.Background()
	dbURL := testutil.RequireEnv(t, "DATABASE_URL")

	repo, err := New(ctx, dbURL)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(repo.Close)

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

	return ctx, repo
}
