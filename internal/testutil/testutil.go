package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/palmgate/palmgate/internal/model"
	"github.com/redis/go-redis/v9"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 728728

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// resetSchema drops and recreates one migration pair for tests.
func resetSchema(ctx context.Context, pool *pgxpool.Pool, name string) error {
	root, err := ProjectRoot()
	if err != nil {
		return err
	}

	downPath := filepath.Join(root, "migrations", name+".down.sql")
	upPath := filepath.Join(root, "migrations", name+".up.sql")

	downSQL, err := os.ReadFile(downPath)
	if err != nil {
		return fmt.Errorf("read down migration: %w", err)
	}
	if _, err := pool.Exec(ctx, string(downSQL)); err != nil {
		return fmt.Errorf("apply down migration: %w", err)
	}

	upSQL, err := os.ReadFile(upPath)
	if err != nil {
		return fmt.Errorf("read up migration: %w", err)
	}
	if _, err := pool.Exec(ctx, string(upSQL)); err != nil {
		return fmt.Errorf("apply up migration: %w", err)
	}

	return nil
}

// ResetUsersSchema drops and recreates the users/profiles/roles schema.
func ResetUsersSchema(ctx context.Context, pool *pgxpool.Pool) error {
	return resetSchema(ctx, pool, "000001_users")
}

// ResetTokensSchema drops and recreates the registration tokens schema.
func ResetTokensSchema(ctx context.Context, pool *pgxpool.Pool) error {
	return resetSchema(ctx, pool, "000002_registration_tokens")
}

// ResetCardsSchema drops and recreates the payment cards schema.
func ResetCardsSchema(ctx context.Context, pool *pgxpool.Pool) error {
	return resetSchema(ctx, pool, "000003_payment_cards")
}

// ResetAPIKeysSchema drops and recreates the api_keys schema.
func ResetAPIKeysSchema(ctx context.Context, pool *pgxpool.Pool) error {
	return resetSchema(ctx, pool, "000004_api_keys")
}

// ResetActivitySchema drops and recreates transactions, attendance and
// access log schemas.
func ResetActivitySchema(ctx context.Context, pool *pgxpool.Pool) error {
	return resetSchema(ctx, pool, "000005_activity")
}

// ResetEventsSchema drops and recreates the activity event and daily stats
// schemas.
func ResetEventsSchema(ctx context.Context, pool *pgxpool.Pool) error {
	return resetSchema(ctx, pool, "000006_activity_events")
}

// ResetAllSchemas resets the full schema set in dependency order.
func ResetAllSchemas(ctx context.Context, pool *pgxpool.Pool) error {
	// Down in reverse dependency order, then up again.
	for _, name := range []string{"000006_activity_events", "000005_activity", "000004_api_keys", "000003_payment_cards", "000002_registration_tokens", "000001_users"} {
		root, err := ProjectRoot()
		if err != nil {
			return err
		}
		downSQL, err := os.ReadFile(filepath.Join(root, "migrations", name+".down.sql"))
		if err != nil {
			return fmt.Errorf("read down migration: %w", err)
		}
		if _, err := pool.Exec(ctx, string(downSQL)); err != nil {
			return fmt.Errorf("apply down migration: %w", err)
		}
	}
	for _, name := range []string{"000001_users", "000002_registration_tokens", "000003_payment_cards", "000004_api_keys", "000005_activity", "000006_activity_events"} {
		root, err := ProjectRoot()
		if err != nil {
			return err
		}
		upSQL, err := os.ReadFile(filepath.Join(root, "migrations", name+".up.sql"))
		if err != nil {
			return fmt.Errorf("read up migration: %w", err)
		}
		if _, err := pool.Exec(ctx, string(upSQL)); err != nil {
			return fmt.Errorf("apply up migration: %w", err)
		}
	}
	return nil
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// ProjectRoot returns the project root directory.
func ProjectRoot() (string, error) {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("failed to resolve testutil path")
	}
	root := filepath.Clean(filepath.Join(filepath.Dir(filename), "..", ".."))
	return root, nil
}

// ============================================================================
// Test Data Factories
// ============================================================================

// CreateTestUser inserts a user row with a profile and returns the user ID.
func CreateTestUser(ctx context.Context, pool *pgxpool.Pool, email string) (string, error) {
	now := time.Now().UTC()
	userID := UniqueID("user")

	if _, err := pool.Exec(ctx,
		"INSERT INTO users (id, email, created_at) VALUES ($1, $2, $3)",
		userID, email, now,
	); err != nil {
		return "", fmt.Errorf("insert test user: %w", err)
	}

	if _, err := pool.Exec(ctx,
		"INSERT INTO profiles (id, user_id, full_name, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)",
		UniqueID("profile"), userID, "Test User", now, now,
	); err != nil {
		return "", fmt.Errorf("insert test profile: %w", err)
	}

	return userID, nil
}

// CreateTestUserWithoutProfile inserts a bare user row, as left behind when
// identity-provider signup succeeded but profile provisioning did not.
func CreateTestUserWithoutProfile(ctx context.Context, pool *pgxpool.Pool, email string) (string, error) {
	userID := UniqueID("user")
	if _, err := pool.Exec(ctx,
		"INSERT INTO users (id, email, created_at) VALUES ($1, $2, $3)",
		userID, email, time.Now().UTC(),
	); err != nil {
		return "", fmt.Errorf("insert test user: %w", err)
	}
	return userID, nil
}

// NewTestRegistrationToken creates a registration token with sensible defaults.
func NewTestRegistrationToken(t testing.TB) *model.RegistrationToken {
	t.Helper()
	now := time.Now().UTC()
	return &model.RegistrationToken{
		ID:         UniqueID("regtok"),
		Token:      fmt.Sprintf("reg_%d", now.UnixNano()),
		PalmScanID: fmt.Sprintf("palm_%d_test", now.UnixMilli()),
		CreatedAt:  now,
		ExpiresAt:  now.Add(model.RegistrationTokenTTL),
	}
}

// NewTestCard creates a payment card with sensible defaults.
func NewTestCard(t testing.TB, userID string) *model.PaymentCard {
	t.Helper()
	now := time.Now().UTC()
	return &model.PaymentCard{
		ID:             UniqueID("card"),
		UserID:         userID,
		CardToken:      fmt.Sprintf("tok_%d", now.UnixNano()),
		LastFour:       "4242",
		CardBrand:      model.BrandVisa,
		CardholderName: "Test User",
		ExpiryMonth:    12,
		ExpiryYear:     now.Year() + 2,
		IsDefault:      true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// NewTestAPIKey creates a terminal key with sensible defaults.
func NewTestAPIKey(t testing.TB, userID string) *model.APIKey {
	t.Helper()
	now := time.Now().UTC()
	return &model.APIKey{
		ID:            UniqueID("key"),
		UserID:        userID,
		KeyHash:       fmt.Sprintf("hash-%d", now.UnixNano()),
		KeyPrefix:     "abc123",
		Scopes:        []string{model.ScopeEnroll, model.ScopeCharge},
		RateLimitTier: model.TierKiosk,
		Name:          "Test Terminal",
		CreatedAt:     now,
	}
}

// NewTestAPIKeyWithTier creates a terminal key with a specific tier.
func NewTestAPIKeyWithTier(t testing.TB, userID string, tier string) *model.APIKey {
	t.Helper()
	key := NewTestAPIKey(t, userID)
	key.RateLimitTier = tier
	return key
}

// UniqueID generates a unique ID for tests.
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}
