// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"time"

	"github.com/palmgate/palmgate/internal/model"
)

// CaptureRequest represents the request body for a palm capture.
// The kiosk names itself so enrollments are traceable to a terminal.
type CaptureRequest struct {
	Kiosk string `json:"kiosk,omitempty"`
}

// CaptureResponse is returned after a successful palm capture. The link
// URL is what the kiosk renders as a QR code.
type CaptureResponse struct {
	Token      string    `json:"token"`
	PalmScanID string    `json:"palm_scan_id"`
	LinkURL    string    `json:"link_url"`
	Quality    float64   `json:"quality"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// TokenPreviewResponse is what the account-linking page sees before the
// user submits the form.
type TokenPreviewResponse struct {
	Status    string    `json:"status"`
	ExpiresAt time.Time `json:"expires_at"`
}

// LinkRequest represents the request body for redeeming a registration
// token. The payload may be the full QR link URL or the bare token.
// The CVV is accepted from the card form but never stored or forwarded.
type LinkRequest struct {
	Payload        string `json:"payload"`
	CardNumber     string `json:"card_number"`
	CardholderName string `json:"cardholder_name"`
	Expiry         string `json:"expiry"` // "MM/YY"
	CVV            string `json:"cvv,omitempty"`
}

// LinkResponse is returned after a completed linking.
type LinkResponse struct {
	LinkedAt *time.Time   `json:"linked_at,omitempty"`
	Card     CardResponse `json:"card"`
}

// CardResponse represents a stored payment card. The card token and full
// number never appear here.
type CardResponse struct {
	ID             string    `json:"id"`
	LastFour       string    `json:"last_four"`
	CardBrand      string    `json:"card_brand"`
	CardholderName string    `json:"cardholder_name"`
	ExpiryMonth    int       `json:"expiry_month"`
	ExpiryYear     int       `json:"expiry_year"`
	IsDefault      bool      `json:"is_default"`
	CreatedAt      time.Time `json:"created_at"`
}

// ChargeRequest represents a palm-verified charge from a checkout terminal.
type ChargeRequest struct {
	PalmScanID  string  `json:"palm_scan_id"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency,omitempty"`
	Merchant    string  `json:"merchant,omitempty"`
	Description string  `json:"description,omitempty"`
}

// ChargeResponse is returned after a completed charge.
type ChargeResponse struct {
	Transaction TransactionResponse `json:"transaction"`
	Profile     ProfileSummary      `json:"profile"`
	CardLast4   string              `json:"card_last_four"`
}

// TransactionResponse represents a transaction in API responses.
type TransactionResponse struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Amount      float64   `json:"amount"`
	Currency    string    `json:"currency"`
	Status      string    `json:"status"`
	Merchant    string    `json:"merchant,omitempty"`
	Description string    `json:"description,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// ProfileSummary is the minimal identity a terminal shows on its display.
type ProfileSummary struct {
	FullName   string `json:"full_name"`
	Department string `json:"department,omitempty"`
	EmployeeID string `json:"employee_id,omitempty"`
}

// ProfileResponse represents the full profile for the account owner.
type ProfileResponse struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	FullName   string    `json:"full_name"`
	PalmLinked bool      `json:"palm_linked"`
	Department string    `json:"department,omitempty"`
	EmployeeID string    `json:"employee_id,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	AvatarURL  string    `json:"avatar_url,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// AttendanceRequest represents an attendance event from a terminal.
type AttendanceRequest struct {
	PalmScanID string `json:"palm_scan_id"`
	Type       string `json:"type"`
	Location   string `json:"location,omitempty"`
}

// AttendanceResponse is returned after recording an attendance event.
type AttendanceResponse struct {
	Record  AttendanceRecordResponse `json:"record"`
	Profile ProfileSummary           `json:"profile"`
}

// AttendanceRecordResponse represents a stored attendance record.
type AttendanceRecordResponse struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Location  string    `json:"location,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// AccessCheckRequest represents an access decision request from a door reader.
type AccessCheckRequest struct {
	PalmScanID string `json:"palm_scan_id"`
	Area       string `json:"area"`
}

// AccessCheckResponse is the decision a door reader acts on.
type AccessCheckResponse struct {
	Granted bool           `json:"granted"`
	Reason  string         `json:"reason,omitempty"`
	Profile ProfileSummary `json:"profile"`
}

// TransactionListResponse represents a paginated list of transactions.
type TransactionListResponse struct {
	Data       []TransactionResponse `json:"data"`
	Pagination *Pagination           `json:"pagination"`
}

// AttendanceListResponse represents a paginated list of attendance records.
type AttendanceListResponse struct {
	Data       []AttendanceRecordResponse `json:"data"`
	Pagination *Pagination                `json:"pagination"`
}

// Pagination provides cursor-based pagination info.
type Pagination struct {
	NextCursor string `json:"next_cursor,omitempty"`
	HasMore    bool   `json:"has_more"`
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// ToCardResponse converts a PaymentCard model to CardResponse DTO.
func ToCardResponse(card *model.PaymentCard) CardResponse {
	return CardResponse{
		ID:             card.ID,
		LastFour:       card.LastFour,
		CardBrand:      card.CardBrand,
		CardholderName: card.CardholderName,
		ExpiryMonth:    card.ExpiryMonth,
		ExpiryYear:     card.ExpiryYear,
		IsDefault:      card.IsDefault,
		CreatedAt:      card.CreatedAt,
	}
}

// ToTransactionResponse converts a Transaction model to TransactionResponse DTO.
func ToTransactionResponse(tx *model.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:          tx.ID,
		Type:        tx.Type,
		Amount:      tx.Amount,
		Currency:    tx.Currency,
		Status:      tx.Status,
		Merchant:    tx.Merchant,
		Description: tx.Description,
		Timestamp:   tx.Timestamp,
	}
}

// ToAttendanceRecordResponse converts an AttendanceRecord model to its DTO.
func ToAttendanceRecordResponse(rec *model.AttendanceRecord) AttendanceRecordResponse {
	return AttendanceRecordResponse{
		ID:        rec.ID,
		Type:      rec.Type,
		Location:  rec.Location,
		Timestamp: rec.Timestamp,
	}
}

// ToProfileSummary converts a Profile model to the terminal display summary.
func ToProfileSummary(p *model.Profile) ProfileSummary {
	return ProfileSummary{
		FullName:   p.FullName,
		Department: p.Department,
		EmployeeID: p.EmployeeID,
	}
}

// ToProfileResponse converts a Profile model to ProfileResponse DTO.
func ToProfileResponse(p *model.Profile) ProfileResponse {
	return ProfileResponse{
		ID:         p.ID,
		UserID:     p.UserID,
		FullName:   p.FullName,
		PalmLinked: p.HasPalm(),
		Department: p.Department,
		EmployeeID: p.EmployeeID,
		Phone:      p.Phone,
		AvatarURL:  p.AvatarURL,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

// ToTransactionListResponse converts a page of transactions.
func ToTransactionListResponse(txs []*model.Transaction, nextCursor string, hasMore bool) *TransactionListResponse {
	responses := make([]TransactionResponse, len(txs))
	for i, tx := range txs {
		responses[i] = ToTransactionResponse(tx)
	}
	return &TransactionListResponse{
		Data: responses,
		Pagination: &Pagination{
			NextCursor: nextCursor,
			HasMore:    hasMore,
		},
	}
}

// ToAttendanceListResponse converts a page of attendance records.
func ToAttendanceListResponse(records []*model.AttendanceRecord, nextCursor string, hasMore bool) *AttendanceListResponse {
	responses := make([]AttendanceRecordResponse, len(records))
	for i, rec := range records {
		responses[i] = ToAttendanceRecordResponse(rec)
	}
	return &AttendanceListResponse{
		Data: responses,
		Pagination: &Pagination{
			NextCursor: nextCursor,
			HasMore:    hasMore,
		},
	}
}

// DailyStatResponse is one aggregated activity row for the dashboard.
type DailyStatResponse struct {
	Day         string  `json:"day"`
	Kind        string  `json:"kind"`
	Status      string  `json:"status"`
	Events      int64   `json:"events"`
	AmountTotal float64 `json:"amount_total"`
}

// DailyStatsResponse represents the daily activity stats listing.
type DailyStatsResponse struct {
	From  string              `json:"from"`
	To    string              `json:"to"`
	Stats []DailyStatResponse `json:"stats"`
}

// ToDailyStatsResponse converts aggregated stats rows.
func ToDailyStatsResponse(stats []*model.DailyActivityStat, from, to time.Time) *DailyStatsResponse {
	responses := make([]DailyStatResponse, len(stats))
	for i, stat := range stats {
		responses[i] = DailyStatResponse{
			Day:         stat.Day.Format("2006-01-02"),
			Kind:        stat.Kind,
			Status:      stat.Status,
			Events:      stat.Events,
			AmountTotal: stat.AmountTotal,
		}
	}
	return &DailyStatsResponse{
		From:  from.Format("2006-01-02"),
		To:    to.Format("2006-01-02"),
		Stats: responses,
	}
}
