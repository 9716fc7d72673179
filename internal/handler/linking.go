package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/palmgate/palmgate/internal/auth"
	"github.com/palmgate/palmgate/internal/handler/dto"
	"github.com/palmgate/palmgate/internal/middleware"
	"github.com/palmgate/palmgate/internal/qr"
	"github.com/palmgate/palmgate/internal/service"
)

// LinkingHandler handles the account-linking flow: the public token
// preview the link page renders, and the authenticated redemption.
type LinkingHandler struct {
	svc    *service.LinkingService
	logger *slog.Logger
}

// NewLinkingHandler creates a new LinkingHandler.
func NewLinkingHandler(svc *service.LinkingService, logger *slog.Logger) *LinkingHandler {
	return &LinkingHandler{
		svc:    svc,
		logger: logger,
	}
}

// Peek handles GET /link-account.
// The mobile app lands here after scanning the kiosk QR code; the response
// tells it whether the token is still redeemable before it shows the card
// form. Nothing about the palm scan is revealed.
func (h *LinkingHandler) Peek(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get(qr.TokenParam)
	if token == "" {
		h.writeError(w, http.StatusBadRequest, "MISSING_TOKEN", "Registration token is required")
		return
	}
	if err := middleware.ValidateRegistrationToken(token); err != nil {
		// Malformed tokens can never exist; answer as not found so the
		// page shows the same message either way.
		h.writeError(w, http.StatusNotFound, "TOKEN_NOT_FOUND", "Registration token not found")
		return
	}

	preview, err := h.svc.Peek(r.Context(), token)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	response := dto.TokenPreviewResponse{
		Status:    string(preview.Status),
		ExpiresAt: preview.ExpiresAt,
	}
	writeJSON(w, http.StatusOK, response)
}

// Link handles POST /api/v1/link.
// Requires an authenticated user session. Redeems the registration token:
// the palm scan captured at the kiosk is attached to the caller's account
// and the submitted card becomes their default payment method.
func (h *LinkingHandler) Link(w http.ResponseWriter, r *http.Request) {
	session := auth.SessionFromContext(r.Context())
	if session == nil {
		h.writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	var req dto.LinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	// The app may send the full scanned URL or the bare token.
	token, err := qr.ParseToken(req.Payload)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "MISSING_TOKEN", "No registration token in request")
		return
	}

	input := service.LinkInput{
		Token:          token,
		UserID:         session.UserID,
		CardNumber:     req.CardNumber,
		CardholderName: req.CardholderName,
		Expiry:         req.Expiry,
	}

	out, err := h.svc.Link(r.Context(), input)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("palm_linked",
		"token_id", out.Token.ID,
		"user_id", session.UserID,
		"card_id", out.Card.ID,
	)

	response := dto.LinkResponse{
		LinkedAt: out.Token.LinkedAt,
		Card:     dto.ToCardResponse(out.Card),
	}
	writeJSON(w, http.StatusOK, response)
}

// handleServiceError maps linking service errors to HTTP responses.
func (h *LinkingHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrTokenNotFound):
		h.writeError(w, http.StatusNotFound, "TOKEN_NOT_FOUND", "Registration token not found")
	case errors.Is(err, service.ErrTokenUsed):
		h.writeError(w, http.StatusConflict, "TOKEN_USED", "Registration token has already been redeemed")
	case errors.Is(err, service.ErrTokenExpired):
		h.writeError(w, http.StatusGone, "TOKEN_EXPIRED", "Registration token has expired, rescan at the kiosk")
	case errors.Is(err, service.ErrPalmAlreadyLinked):
		h.writeError(w, http.StatusConflict, "PALM_ALREADY_LINKED", "This palm scan is already linked to an account")
	case errors.Is(err, service.ErrProfileNotFound):
		h.writeError(w, http.StatusNotFound, "PROFILE_NOT_FOUND", "No profile exists for this account")
	case errors.Is(err, service.ErrInvalidCardNumber):
		h.writeError(w, http.StatusBadRequest, "INVALID_CARD_NUMBER", "Card number must be 13-19 digits")
	case errors.Is(err, service.ErrInvalidCardExpiry):
		h.writeError(w, http.StatusBadRequest, "INVALID_CARD_EXPIRY", "Card expiry is invalid or in the past")
	case errors.Is(err, service.ErrMissingCardholder):
		h.writeError(w, http.StatusBadRequest, "MISSING_CARDHOLDER", "Cardholder name is required")
	default:
		h.logger.Error("internal_error", "error", err)
		h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}

// writeError writes an error response.
func (h *LinkingHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error: message,
		Code:  code,
	})
}
