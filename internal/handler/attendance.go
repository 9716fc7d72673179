package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/palmgate/palmgate/internal/handler/dto"
	"github.com/palmgate/palmgate/internal/middleware"
	"github.com/palmgate/palmgate/internal/service"
)

// AttendanceHandler handles attendance events from time-clock terminals.
type AttendanceHandler struct {
	svc    *service.AttendanceService
	logger *slog.Logger
}

// NewAttendanceHandler creates a new AttendanceHandler.
func NewAttendanceHandler(svc *service.AttendanceService, logger *slog.Logger) *AttendanceHandler {
	return &AttendanceHandler{
		svc:    svc,
		logger: logger,
	}
}

// Record handles POST /api/v1/attendance.
func (h *AttendanceHandler) Record(w http.ResponseWriter, r *http.Request) {
	var req dto.AttendanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if err := middleware.ValidatePalmScanID(req.PalmScanID); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_PALM_SCAN", "Palm scan identifier is malformed")
		return
	}

	if err := middleware.ValidateFreeText(req.Location, middleware.MaxLocationLength); err != nil {
		h.writeError(w, http.StatusBadRequest, "LOCATION_TOO_LONG", "Location exceeds maximum length")
		return
	}

	input := service.RecordInput{
		PalmScanID: req.PalmScanID,
		Type:       req.Type,
		Location:   req.Location,
	}

	out, err := h.svc.Record(r.Context(), input)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("attendance_recorded",
		"record_id", out.Record.ID,
		"user_id", out.Record.UserID,
		"type", out.Record.Type,
	)

	response := dto.AttendanceResponse{
		Record:  dto.ToAttendanceRecordResponse(out.Record),
		Profile: dto.ToProfileSummary(out.Profile),
	}
	writeJSON(w, http.StatusCreated, response)
}

// handleServiceError maps attendance service errors to HTTP responses.
func (h *AttendanceHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrPalmNotRecognized):
		h.writeError(w, http.StatusNotFound, "PALM_NOT_RECOGNIZED", "Palm scan is not linked to any account")
	case errors.Is(err, service.ErrInvalidAttendanceType):
		h.writeError(w, http.StatusBadRequest, "INVALID_TYPE", "Attendance type must be check_in or check_out")
	default:
		h.logger.Error("internal_error", "error", err)
		h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}

// writeError writes an error response.
func (h *AttendanceHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error: message,
		Code:  code,
	})
}
