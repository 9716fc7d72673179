//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/palmgate/palmgate/internal/testutil"
)

// ============================================================================
// Migration Integration Tests
// ============================================================================

func TestIntegrationMigration_ApplyAllTables(t *testing.T) {
	ctx, pool := newMigrationTestEnv(t)

	// Verify all expected tables exist
	tables := []string{
		"users",
		"profiles",
		"user_roles",
		"palm_registration_tokens",
		"payment_cards",
		"api_keys",
		"transactions",
		"attendance_records",
		"access_logs",
	}

	for _, table := range tables {
		t.Run(table, func(t *testing.T) {
			exists, err := tableExists(ctx, pool, table)
			if err != nil {
				t.Fatalf("tableExists failed: %v", err)
			}
			if !exists {
				t.Errorf("Table %q should exist after migrations", table)
			}
		})
	}
}

func TestIntegrationMigration_TokensTableSchema(t *testing.T) {
	ctx, pool := newMigrationTestEnv(t)

	expectedColumns := []string{
		"id",
		"token",
		"palm_scan_id",
		"user_id",
		"is_used",
		"linked_at",
		"created_at",
		"expires_at",
	}

	for _, col := range expectedColumns {
		t.Run(col, func(t *testing.T) {
			exists, err := columnExists(ctx, pool, "palm_registration_tokens", col)
			if err != nil {
				t.Fatalf("columnExists failed: %v", err)
			}
			if !exists {
				t.Errorf("Column %q should exist in palm_registration_tokens table", col)
			}
		})
	}
}

func TestIntegrationMigration_TokenConstraints(t *testing.T) {
	ctx, pool := newMigrationTestEnv(t)

	now := time.Now().UTC()

	// Duplicate token values are rejected.
	_, err := pool.Exec(ctx, `
		INSERT INTO palm_registration_tokens (id, token, palm_scan_id, expires_at)
		VALUES ('tok-a', 'reg_dup', 'palm_1', $1), ('tok-b', 'reg_dup', 'palm_2', $1)
	`, now.Add(time.Hour))
	if err == nil {
		t.Error("Expected unique constraint violation for duplicate token")
	}
}

func TestIntegrationMigration_CardConstraints(t *testing.T) {
	ctx, pool := newMigrationTestEnv(t)

	userID, err := testutil.CreateTestUser(ctx, pool, "cards@example.com")
	if err != nil {
		t.Fatalf("CreateTestUser failed: %v", err)
	}

	now := time.Now().UTC()

	// Two default cards for one user are rejected.
	insert := `
		INSERT INTO payment_cards (id, user_id, card_token, last_four, expiry_month, expiry_year, is_default, created_at, updated_at)
		VALUES ($1, $2, $3, '4242', 12, 2030, TRUE, $4, $4)
	`
	if _, err := pool.Exec(ctx, insert, "card-a", userID, "tok_a", now); err != nil {
		t.Fatalf("first default insert failed: %v", err)
	}
	if _, err := pool.Exec(ctx, insert, "card-b", userID, "tok_b", now); err == nil {
		t.Error("Expected unique violation for second default card")
	}
}

func TestIntegrationMigration_RoleConstraints(t *testing.T) {
	ctx, pool := newMigrationTestEnv(t)

	userID, err := testutil.CreateTestUser(ctx, pool, "roles@example.com")
	if err != nil {
		t.Fatalf("CreateTestUser failed: %v", err)
	}

	// Unknown role values are rejected by the check constraint.
	_, err = pool.Exec(ctx, `
		INSERT INTO user_roles (id, user_id, role)
		VALUES ('role-x', $1, 'superuser')
	`, userID)
	if err == nil {
		t.Error("Expected check constraint violation for unknown role")
	}
}

func TestIntegrationMigration_ActivityConstraints(t *testing.T) {
	ctx, pool := newMigrationTestEnv(t)

	userID, err := testutil.CreateTestUser(ctx, pool, "activity@example.com")
	if err != nil {
		t.Fatalf("CreateTestUser failed: %v", err)
	}

	now := time.Now().UTC()

	// Unknown transaction type rejected.
	_, err = pool.Exec(ctx, `
		INSERT INTO transactions (id, user_id, type, amount, status, timestamp)
		VALUES ('tx-x', $1, 'chargeback', 10.00, 'completed', $2)
	`, userID, now)
	if err == nil {
		t.Error("Expected check constraint violation for unknown transaction type")
	}

	// Unknown attendance type rejected.
	_, err = pool.Exec(ctx, `
		INSERT INTO attendance_records (id, user_id, type, timestamp)
		VALUES ('att-x', $1, 'lunch', $2)
	`, userID, now)
	if err == nil {
		t.Error("Expected check constraint violation for unknown attendance type")
	}

	// Unknown access action rejected.
	_, err = pool.Exec(ctx, `
		INSERT INTO access_logs (id, user_id, area, action, timestamp)
		VALUES ('acc-x', $1, 'main-entrance', 'maybe', $2)
	`, userID, now)
	if err == nil {
		t.Error("Expected check constraint violation for unknown access action")
	}
}

func TestIntegrationMigration_Idempotency(t *testing.T) {
	ctx, pool := newMigrationTestEnv(t)

	// Re-applying up migrations should not fail (IF NOT EXISTS clauses).
	if err := testutil.ResetUsersSchema(ctx, pool); err != nil {
		t.Fatalf("reset users schema: %v", err)
	}
	if err := testutil.ResetUsersSchema(ctx, pool); err != nil {
		t.Fatalf("second reset should not fail: %v", err)
	}
}

// ============================================================================
// Helper Functions
// ============================================================================

func tableExists(ctx context.Context, pool *pgxpool.Pool, tableName string) (bool, error) {
	var exists bool
	err := pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_schema = 'public'
			AND table_name = $1
		)
	`, tableName).Scan(&exists)
	return exists, err
}

func columnExists(ctx context.Context, pool *pgxpool.Pool, tableName, columnName string) (bool, error) {
	var exists bool
	err := pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT FROM information_schema.columns
			WHERE table_schema = 'public'
			AND table_name = $1
			AND column_name = $2
		)
	`, tableName, columnName).Scan(&exists)
	return exists, err
}

// ============================================================================
// Test Environment Setup
// ============================================================================

func newMigrationTestEnv(t *testing.T) (context.Context, *pgxpool.Pool) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	ctx := context.Background()
	dbURL := testutil.RequireEnv(t, "DATABASE_URL")

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(pool.Close)

	unlock, err := testutil.AcquireDBLock(ctx, pool)
	if err != nil {
		t.Fatalf("acquire db lock: %v", err)
	}
	t.Cleanup(func() {
		_ = unlock()
	})

	if err := testutil.ResetAllSchemas(ctx, pool); err != nil {
		t.Fatalf("reset schemas: %v", err)
	}

	return ctx, pool
}
