package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/palmgate/palmgate/internal/handler/dto"
	"github.com/palmgate/palmgate/internal/service"
)

// EnrollmentHandler handles palm capture requests from enrollment kiosks.
type EnrollmentHandler struct {
	svc    *service.EnrollmentService
	logger *slog.Logger
}

// NewEnrollmentHandler creates a new EnrollmentHandler.
func NewEnrollmentHandler(svc *service.EnrollmentService, logger *slog.Logger) *EnrollmentHandler {
	return &EnrollmentHandler{
		svc:    svc,
		logger: logger,
	}
}

// Capture handles POST /api/v1/enrollments.
// It triggers a palm scan on the kiosk's scanner and, on success, returns
// a registration token and the URL the kiosk renders as a QR code.
func (h *EnrollmentHandler) Capture(w http.ResponseWriter, r *http.Request) {
	// Body is optional; a bare POST is a valid capture request.
	var req dto.CaptureRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
			return
		}
	}

	out, err := h.svc.Capture(r.Context())
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("palm_captured",
		"token_id", out.Token.ID,
		"kiosk", req.Kiosk,
		"quality", out.Quality,
	)

	response := dto.CaptureResponse{
		Token:      out.Token.Token,
		PalmScanID: out.Token.PalmScanID,
		LinkURL:    out.LinkURL,
		Quality:    out.Quality,
		ExpiresAt:  out.Token.ExpiresAt,
	}
	writeJSON(w, http.StatusCreated, response)
}

// handleServiceError maps enrollment service errors to HTTP responses.
func (h *EnrollmentHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrScanFailed):
		h.writeError(w, http.StatusUnprocessableEntity, "SCAN_FAILED", "Palm scan failed, ask the user to rescan")
	case errors.Is(err, service.ErrScannerUnavailable):
		h.writeError(w, http.StatusServiceUnavailable, "SCANNER_UNAVAILABLE", "Palm scanner is unavailable")
	default:
		h.logger.Error("internal_error", "error", err)
		h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}

// writeError writes an error response.
func (h *EnrollmentHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error: message,
		Code:  code,
	})
}
