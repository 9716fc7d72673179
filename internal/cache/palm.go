package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/palmgate/palmgate/internal/model"
)

// Cache key prefixes and TTLs.
const (
	palmKeyPrefix     = "palm:"
	negCacheKeySuffix = ":neg"

	// DefaultPalmTTL is the TTL for cached palm-to-profile mappings.
	DefaultPalmTTL = 24 * time.Hour

	// NegativeCacheTTL is the TTL for negative cache entries. Unknown palm
	// scans at busy terminals should not hammer the database.
	NegativeCacheTTL = 5 * time.Minute
)

// Common cache errors.
var (
	ErrCacheMiss = errors.New("cache miss")
)

// palmKey builds the cache key for a palm-to-profile mapping.
func palmKey(palmScanID string) string {
	return palmKeyPrefix + palmScanID
}

// negKey builds the negative-cache key marking a palm as unlinked.
func negKey(palmScanID string) string {
	return palmKey(palmScanID) + negCacheKeySuffix
}

// GetPalmProfile retrieves a cached profile by palm scan ID.
// Returns ErrCacheMiss if not found.
func (c *Cache) GetPalmProfile(ctx context.Context, palmScanID string) (*model.CachedProfile, error) {
	key := palmKey(palmScanID)

	result, err := c.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall failed: %w", err)
	}

	if len(result) == 0 {
		return nil, ErrCacheMiss
	}

	cached := &model.CachedProfile{
		UserID:     result["user_id"],
		FullName:   result["full_name"],
		Department: result["department"],
		EmployeeID: result["employee_id"],
	}

	return cached, nil
}

// SetPalmProfile stores a palm-to-profile mapping in cache.
func (c *Cache) SetPalmProfile(ctx context.Context, palmScanID string, profile *model.Profile) error {
	key := palmKey(palmScanID)
	cached := profile.ToCachedProfile()

	fields := map[string]any{
		"user_id":   cached.UserID,
		"full_name": cached.FullName,
	}

	// Only set optional fields if they have values
	if cached.Department != "" {
		fields["department"] = cached.Department
	}
	if cached.EmployeeID != "" {
		fields["employee_id"] = cached.EmployeeID
	}

	pipe := c.client.Pipeline()
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, DefaultPalmTTL)

	_, err := pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to cache palm profile: %w", err)
	}

	// Remove negative cache if exists
	c.client.Del(ctx, negKey(palmScanID))

	return nil
}

// DeletePalmProfile removes a palm mapping from cache.
// Used when a profile is updated or unlinked.
func (c *Cache) DeletePalmProfile(ctx context.Context, palmScanID string) error {
	key := palmKey(palmScanID)

	pipe := c.client.Pipeline()
	pipe.Del(ctx, key)
	pipe.Del(ctx, negKey(palmScanID))

	_, err := pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete palm profile from cache: %w", err)
	}

	return nil
}

// IsNegativelyCached checks if a palm scan ID is in negative cache.
func (c *Cache) IsNegativelyCached(ctx context.Context, palmScanID string) (bool, error) {
	key := negKey(palmScanID)

	exists, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check negative cache: %w", err)
	}

	return exists > 0, nil
}

// SetNegativeCache marks a palm scan ID as not linked to any profile.
func (c *Cache) SetNegativeCache(ctx context.Context, palmScanID string) error {
	key := negKey(palmScanID)

	err := c.client.SetEx(ctx, key, "", NegativeCacheTTL).Err()
	if err != nil {
		return fmt.Errorf("failed to set negative cache: %w", err)
	}

	return nil
}
