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

// AccessHandler handles access decisions for door readers.
type AccessHandler struct {
	svc    *service.AccessService
	logger *slog.Logger
}

// NewAccessHandler creates a new AccessHandler.
func NewAccessHandler(svc *service.AccessService, logger *slog.Logger) *AccessHandler {
	return &AccessHandler{
		svc:    svc,
		logger: logger,
	}
}

// Check handles POST /api/v1/access/checks.
// A denied decision is a successful check: the reader gets a 200 with
// granted=false and keeps the door shut.
func (h *AccessHandler) Check(w http.ResponseWriter, r *http.Request) {
	var req dto.AccessCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if err := middleware.ValidatePalmScanID(req.PalmScanID); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_PALM_SCAN", "Palm scan identifier is malformed")
		return
	}

	input := service.CheckInput{
		PalmScanID: req.PalmScanID,
		Area:       req.Area,
	}

	decision, err := h.svc.Check(r.Context(), input)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("access_checked",
		"user_id", decision.Log.UserID,
		"area", decision.Log.Area,
		"granted", decision.Granted,
	)

	response := dto.AccessCheckResponse{
		Granted: decision.Granted,
		Reason:  decision.Reason,
		Profile: dto.ToProfileSummary(decision.Profile),
	}
	writeJSON(w, http.StatusOK, response)
}

// handleServiceError maps access service errors to HTTP responses.
func (h *AccessHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrPalmNotRecognized):
		h.writeError(w, http.StatusNotFound, "PALM_NOT_RECOGNIZED", "Palm scan is not linked to any account")
	case errors.Is(err, service.ErrUnknownArea):
		h.writeError(w, http.StatusBadRequest, "UNKNOWN_AREA", "Unknown access area")
	default:
		h.logger.Error("internal_error", "error", err)
		h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}

// writeError writes an error response.
func (h *AccessHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error: message,
		Code:  code,
	})
}
