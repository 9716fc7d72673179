package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/palmgate/palmgate/internal/handler/dto"
)

func TestStatsHandler_DailyStats_BadRange(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewStatsHandler(logger, nil)

	tests := []struct {
		name  string
		query string
		code  string
	}{
		{"malformed from", "?from=2026-9-1", "INVALID_DATE"},
		{"malformed to", "?to=today", "INVALID_DATE"},
		{"from after to", "?from=2026-08-10&to=2026-08-01", "INVALID_RANGE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/stats/daily"+tt.query, nil)
			rec := httptest.NewRecorder()
			h.DailyStats(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			var resp dto.ErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("decode error response: %v", err)
			}
			if resp.Code != tt.code {
				t.Errorf("expected code %s, got %s", tt.code, resp.Code)
			}
		})
	}
}
