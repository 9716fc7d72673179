//go:build integration

package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/palmgate/palmgate/internal/analytics"
	"github.com/palmgate/palmgate/internal/cache"
	"github.com/palmgate/palmgate/internal/handler/dto"
	"github.com/palmgate/palmgate/internal/metrics"
	"github.com/palmgate/palmgate/internal/repository"
	"github.com/palmgate/palmgate/internal/testutil"
)

func TestActivityEventIngestAndQuery(t *testing.T) {
	ctx := context.Background()
	dbURL := testutil.RequireEnv(t, "DATABASE_URL")
	redisURL := testutil.RequireEnv(t, "REDIS_URL")

	repo, err := repository.New(ctx, dbURL)
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

	if err := testutil.ResetEventsSchema(ctx, repo.Pool()); err != nil {
		t.Fatalf("reset events schema: %v", err)
	}

	cacheClient, err := cache.New(ctx, redisURL)
	if err != nil {
		t.Fatalf("connect redis: %v", err)
	}
	t.Cleanup(func() {
		_ = cacheClient.Close()
	})

	if err := testutil.FlushRedis(ctx, cacheClient.Client()); err != nil {
		t.Fatalf("flush redis: %v", err)
	}

	recorder := metrics.NewInMemory()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	publisher := analytics.NewPublisher(cacheClient.Client(), logger, recorder)
	statsHandler := NewStatsHandler(logger, repo)

	worker := analytics.NewWorker(cacheClient.Client(), repo, logger, "test-consumer", recorder)
	worker.SetBlockTimeout(200 * time.Millisecond)
	worker.SetClaimInterval(200 * time.Millisecond)
	worker.SetMetricsInterval(200 * time.Millisecond)
	worker.SetBatchSize(100)

	workerCtx, cancel := context.WithCancel(ctx)
	workerErr := make(chan error, 1)
	go func() {
		workerErr <- worker.Run(workerCtx)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-workerErr:
		case <-time.After(2 * time.Second):
		}
	})

	userID := testutil.UniqueID("user")
	events := []analytics.ActivityEventPayload{
		analytics.PaymentEvent(userID, "completed", 10.00, "SAR", "Cafeteria"),
		analytics.PaymentEvent(userID, "completed", 15.00, "SAR", "Cafeteria"),
		analytics.AttendanceEvent(userID, "check-in", "HQ Lobby"),
		analytics.AccessEvent(userID, "denied", "server-room"),
	}
	for _, event := range events {
		if _, err := publisher.Publish(ctx, event); err != nil {
			t.Fatalf("publish event: %v", err)
		}
	}

	router := chi.NewRouter()
	router.Get("/api/v1/stats/daily", statsHandler.DailyStats)

	date := time.Now().UTC().Format("2006-01-02")
	deadline := time.Now().Add(5 * time.Second)

	for time.Now().Before(deadline) {
		response, status := fetchDailyStats(t, router, date, date)
		if status != http.StatusOK {
			t.Fatalf("stats status %d", status)
		}
		if paymentsRow := findStat(response.Stats, "payment", "completed"); paymentsRow != nil {
			if paymentsRow.Events == 2 && paymentsRow.AmountTotal == 25.00 &&
				findStat(response.Stats, "attendance", "check-in") != nil &&
				findStat(response.Stats, "access", "denied") != nil {
				return
			}
		}
		time.Sleep(100 * time.Millisecond)
	}

	response, _ := fetchDailyStats(t, router, date, date)
	t.Fatalf("aggregates incomplete after deadline: %+v", response.Stats)
}

func fetchDailyStats(t *testing.T, router *chi.Mux, from, to string) (dto.DailyStatsResponse, int) {
	t.Helper()

	path := fmt.Sprintf("/api/v1/stats/daily?from=%s&to=%s", from, to)
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var payload dto.DailyStatsResponse
	if rec.Code == http.StatusOK {
		if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
			t.Fatalf("decode stats response: %v", err)
		}
	}
	return payload, rec.Code
}

func findStat(stats []dto.DailyStatResponse, kind, status string) *dto.DailyStatResponse {
	for i := range stats {
		if stats[i].Kind == kind && stats[i].Status == status {
			return &stats[i]
		}
	}
	return nil
}
