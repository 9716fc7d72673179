package service

import (
	"context"
	"errors"
	"time"

	"github.com/palmgate/palmgate/internal/cache"
	"github.com/palmgate/palmgate/internal/metrics"
	"github.com/palmgate/palmgate/internal/model"
	"github.com/palmgate/palmgate/internal/repository"
)

// ErrPalmNotRecognized is returned when a palm scan resolves to no profile.
var ErrPalmNotRecognized = errors.New("palm scan not recognized")

// PalmVerifier resolves palm scan identifiers to profiles.
// This is the hot path for every terminal interaction - optimized for speed
// with cache-first lookup and negative caching for unknown scans.
type PalmVerifier struct {
	repo    *repository.Repository
	cache   *cache.Cache
	metrics metrics.Recorder
}

// NewPalmVerifier creates a new PalmVerifier.
func NewPalmVerifier(repo *repository.Repository, c *cache.Cache, recorder metrics.Recorder) *PalmVerifier {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &PalmVerifier{
		repo:    repo,
		cache:   c,
		metrics: recorder,
	}
}

// Resolve maps a palm scan identifier to the linked profile.
func (v *PalmVerifier) Resolve(ctx context.Context, palmScanID string) (*model.Profile, error) {
	start := time.Now()
	defer func() {
		v.metrics.ObserveVerifyDuration(time.Since(start))
	}()

	// Step 1: Try cache
	cached, err := v.cache.GetPalmProfile(ctx, palmScanID)
	if err == nil {
		v.metrics.IncPalmCacheHit()
		return cached.ToProfile(palmScanID), nil
	}

	// Step 2: Check negative cache
	if errors.Is(err, cache.ErrCacheMiss) {
		v.metrics.IncPalmCacheMiss()
		isNegative, _ := v.cache.IsNegativelyCached(ctx, palmScanID)
		if isNegative {
			return nil, ErrPalmNotRecognized
		}
	}
	// Redis errors fall through to the DB

	// Step 3: DB lookup
	profile, err := v.repo.GetProfileByPalmScanID(ctx, palmScanID)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			_ = v.cache.SetNegativeCache(ctx, palmScanID)
			return nil, ErrPalmNotRecognized
		}
		return nil, err
	}

	// Step 4: Backfill cache
	if err := v.cache.SetPalmProfile(ctx, palmScanID, profile); err != nil {
		_ = err // eventual consistency is acceptable
	}

	return profile, nil
}
