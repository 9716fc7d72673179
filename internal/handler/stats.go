package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/palmgate/palmgate/internal/handler/dto"
	"github.com/palmgate/palmgate/internal/repository"
)

// statsDateLayout is the accepted format for from/to query parameters.
const statsDateLayout = "2006-01-02"

// defaultStatsDays is the window returned when no range is given.
const defaultStatsDays = 7

// StatsHandler serves aggregated activity for the admin dashboard.
type StatsHandler struct {
	logger *slog.Logger
	repo   *repository.Repository
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(logger *slog.Logger, repo *repository.Repository) *StatsHandler {
	return &StatsHandler{
		logger: logger,
		repo:   repo,
	}
}

// DailyStats handles GET /api/v1/stats/daily.
// Accepts optional from/to query parameters (YYYY-MM-DD); defaults to the
// last seven days.
func (h *StatsHandler) DailyStats(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	from := now.AddDate(0, 0, -(defaultStatsDays - 1))
	to := now

	if raw := r.URL.Query().Get("from"); raw != "" {
		parsed, err := time.Parse(statsDateLayout, raw)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "INVALID_DATE", "from must be formatted YYYY-MM-DD")
			return
		}
		from = parsed
	}

	if raw := r.URL.Query().Get("to"); raw != "" {
		parsed, err := time.Parse(statsDateLayout, raw)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "INVALID_DATE", "to must be formatted YYYY-MM-DD")
			return
		}
		to = parsed
	}

	if from.After(to) {
		h.writeError(w, http.StatusBadRequest, "INVALID_RANGE", "from must not be after to")
		return
	}

	stats, err := h.repo.ListDailyActivityStats(r.Context(), from, to)
	if err != nil {
		h.logger.Error("internal_error", "error", err)
		h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
		return
	}

	writeJSON(w, http.StatusOK, dto.ToDailyStatsResponse(stats, from, to))
}

// writeError writes an error response.
func (h *StatsHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error: message,
		Code:  code,
	})
}
