package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/palmgate/palmgate/internal/auth"
	"github.com/palmgate/palmgate/internal/handler/dto"
	"github.com/palmgate/palmgate/internal/service"
)

// WalletHandler handles the account owner's self-service endpoints:
// profile, stored cards, and activity history.
type WalletHandler struct {
	svc    *service.WalletService
	logger *slog.Logger
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(svc *service.WalletService, logger *slog.Logger) *WalletHandler {
	return &WalletHandler{
		svc:    svc,
		logger: logger,
	}
}

// GetProfile handles GET /api/v1/me/profile.
func (h *WalletHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	session := auth.SessionFromContext(r.Context())
	if session == nil {
		h.writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	profile, err := h.svc.GetProfile(r.Context(), session.UserID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToProfileResponse(profile))
}

// ListCards handles GET /api/v1/me/cards.
func (h *WalletHandler) ListCards(w http.ResponseWriter, r *http.Request) {
	session := auth.SessionFromContext(r.Context())
	if session == nil {
		h.writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	cards, err := h.svc.ListCards(r.Context(), session.UserID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	responses := make([]dto.CardResponse, len(cards))
	for i, card := range cards {
		responses[i] = dto.ToCardResponse(card)
	}
	writeJSON(w, http.StatusOK, map[string]any{"cards": responses})
}

// SetDefaultCard handles PUT /api/v1/me/cards/{card_id}/default.
func (h *WalletHandler) SetDefaultCard(w http.ResponseWriter, r *http.Request) {
	session := auth.SessionFromContext(r.Context())
	if session == nil {
		h.writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	cardID := chi.URLParam(r, "card_id")
	if cardID == "" {
		h.writeError(w, http.StatusBadRequest, "MISSING_CARD_ID", "Card ID is required")
		return
	}

	if err := h.svc.SetDefaultCard(r.Context(), session.UserID, cardID); err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("default_card_changed",
		"user_id", session.UserID,
		"card_id", cardID,
	)

	w.WriteHeader(http.StatusNoContent)
}

// DeleteCard handles DELETE /api/v1/me/cards/{card_id}.
func (h *WalletHandler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	session := auth.SessionFromContext(r.Context())
	if session == nil {
		h.writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	cardID := chi.URLParam(r, "card_id")
	if cardID == "" {
		h.writeError(w, http.StatusBadRequest, "MISSING_CARD_ID", "Card ID is required")
		return
	}

	if err := h.svc.DeleteCard(r.Context(), session.UserID, cardID); err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("card_deleted",
		"user_id", session.UserID,
		"card_id", cardID,
	)

	w.WriteHeader(http.StatusNoContent)
}

// ListTransactions handles GET /api/v1/me/transactions.
func (h *WalletHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	session := auth.SessionFromContext(r.Context())
	if session == nil {
		h.writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	query := r.URL.Query()
	input := service.ListTransactionsInput{
		UserID: session.UserID,
		Type:   query.Get("type"),
		Cursor: query.Get("cursor"),
		Limit:  parseLimit(query.Get("limit")),
	}

	result, err := h.svc.ListTransactions(r.Context(), input)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	response := dto.ToTransactionListResponse(result.Transactions, result.NextCursor, result.HasMore)
	writeJSON(w, http.StatusOK, response)
}

// ListAttendance handles GET /api/v1/me/attendance.
func (h *WalletHandler) ListAttendance(w http.ResponseWriter, r *http.Request) {
	session := auth.SessionFromContext(r.Context())
	if session == nil {
		h.writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	query := r.URL.Query()
	input := service.ListAttendanceInput{
		UserID: session.UserID,
		Cursor: query.Get("cursor"),
		Limit:  parseLimit(query.Get("limit")),
	}

	result, err := h.svc.ListAttendance(r.Context(), input)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	response := dto.ToAttendanceListResponse(result.Records, result.NextCursor, result.HasMore)
	writeJSON(w, http.StatusOK, response)
}

// parseLimit parses a limit query parameter; 0 lets the service apply
// its default.
func parseLimit(raw string) int {
	if raw == "" {
		return 0
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0
	}
	return limit
}

// handleServiceError maps wallet service errors to HTTP responses.
func (h *WalletHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrProfileNotFound):
		h.writeError(w, http.StatusNotFound, "PROFILE_NOT_FOUND", "Profile not found")
	case errors.Is(err, service.ErrCardNotFound):
		h.writeError(w, http.StatusNotFound, "CARD_NOT_FOUND", "Card not found")
	case errors.Is(err, service.ErrInvalidCursor):
		h.writeError(w, http.StatusBadRequest, "INVALID_CURSOR", "Invalid pagination cursor")
	default:
		h.logger.Error("internal_error", "error", err)
		h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}

// writeError writes an error response.
func (h *WalletHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error: message,
		Code:  code,
	})
}
