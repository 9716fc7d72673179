package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/palmgate/palmgate/internal/metrics"
	"github.com/palmgate/palmgate/internal/repository"
)

// HousekeepingService periodically purges expired registration tokens that
// were never redeemed. Redeemed tokens stay behind as the audit trail of
// completed linkings.
type HousekeepingService struct {
	repo     *repository.Repository
	logger   *slog.Logger
	metrics  metrics.Recorder
	interval time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a new housekeeping service with the given
// interval. If interval is 0 or negative, defaults to 1 hour.
func NewHousekeepingService(repo *repository.Repository, logger *slog.Logger, recorder metrics.Recorder, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}

	return &HousekeepingService{
		repo:     repo,
		logger:   logger,
		metrics:  recorder,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker that periodically runs the sweep.
// Non-blocking; call Stop to shut down gracefully.
func (s *HousekeepingService) Start() {
	go s.run()
	s.logger.Info("housekeeping service started", "interval", s.interval)
}

// Stop shuts down the background worker.
// Blocks until any in-progress sweep has finished.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Run a sweep immediately on startup
	s.sweep()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopCh:
			return
		}
	}
}

// sweep deletes expired never-used registration tokens.
func (s *HousekeepingService) sweep() {
	ctx := context.Background()

	deleted, err := s.repo.DeleteExpiredUnusedTokens(ctx, time.Now().UTC())
	if err != nil {
		s.logger.Error("failed to sweep expired registration tokens", "error", err)
		return
	}

	s.metrics.AddTokensSwept(deleted)
	if deleted > 0 {
		s.logger.Info("swept expired registration tokens", "deleted", deleted)
	}
}
