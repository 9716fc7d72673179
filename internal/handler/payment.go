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

// PaymentHandler handles palm-verified charges from checkout terminals.
type PaymentHandler struct {
	svc    *service.PaymentService
	logger *slog.Logger
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(svc *service.PaymentService, logger *slog.Logger) *PaymentHandler {
	return &PaymentHandler{
		svc:    svc,
		logger: logger,
	}
}

// Charge handles POST /api/v1/payments.
// The terminal submits the palm scan identifier it just read plus the
// amount; the charge goes to the account's default card.
func (h *PaymentHandler) Charge(w http.ResponseWriter, r *http.Request) {
	var req dto.ChargeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if err := middleware.ValidatePalmScanID(req.PalmScanID); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_PALM_SCAN", "Palm scan identifier is malformed")
		return
	}

	if err := middleware.ValidateFreeText(req.Merchant, middleware.MaxMerchantLength); err != nil {
		h.writeError(w, http.StatusBadRequest, "MERCHANT_TOO_LONG", "Merchant name exceeds maximum length")
		return
	}

	input := service.ChargeInput{
		PalmScanID:  req.PalmScanID,
		Amount:      req.Amount,
		Currency:    req.Currency,
		Merchant:    req.Merchant,
		Description: req.Description,
	}

	out, err := h.svc.Charge(r.Context(), input)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("payment_charged",
		"transaction_id", out.Transaction.ID,
		"user_id", out.Transaction.UserID,
		"amount", out.Transaction.Amount,
		"currency", out.Transaction.Currency,
	)

	response := dto.ChargeResponse{
		Transaction: dto.ToTransactionResponse(out.Transaction),
		Profile:     dto.ToProfileSummary(out.Profile),
		CardLast4:   out.Card.LastFour,
	}
	writeJSON(w, http.StatusCreated, response)
}

// handleServiceError maps payment service errors to HTTP responses.
func (h *PaymentHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrPalmNotRecognized):
		h.writeError(w, http.StatusNotFound, "PALM_NOT_RECOGNIZED", "Palm scan is not linked to any account")
	case errors.Is(err, service.ErrInvalidAmount):
		h.writeError(w, http.StatusBadRequest, "INVALID_AMOUNT", "Amount must be positive")
	case errors.Is(err, service.ErrAmountTooLarge):
		h.writeError(w, http.StatusBadRequest, "AMOUNT_TOO_LARGE", "Amount exceeds the per-charge limit")
	case errors.Is(err, service.ErrNoDefaultCard):
		h.writeError(w, http.StatusConflict, "NO_DEFAULT_CARD", "Account has no default payment card")
	default:
		h.logger.Error("internal_error", "error", err)
		h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}

// writeError writes an error response.
func (h *PaymentHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error: message,
		Code:  code,
	})
}
