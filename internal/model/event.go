package model

import "time"

// Activity event kinds published to the event stream.
const (
	ActivityKindPayment    = "payment"
	ActivityKindAttendance = "attendance"
	ActivityKindAccess     = "access"
)

// IsValidActivityKind reports whether kind is a known activity event kind.
func IsValidActivityKind(kind string) bool {
	switch kind {
	case ActivityKindPayment, ActivityKindAttendance, ActivityKindAccess:
		return true
	}
	return false
}

// ActivityEvent is a single terminal activity event consumed from the
// stream and persisted for the analytics dashboard.
type ActivityEvent struct {
	ID         string    `json:"id"`
	EventID    string    `json:"event_id"` // stream message ID, used for idempotency
	Kind       string    `json:"kind"`
	UserID     string    `json:"user_id"`
	Status     string    `json:"status"`
	Amount     float64   `json:"amount,omitempty"`
	Currency   string    `json:"currency,omitempty"`
	Location   string    `json:"location,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// DailyActivityStat is one row of the per-day activity aggregation.
type DailyActivityStat struct {
	Day         time.Time `json:"day"`
	Kind        string    `json:"kind"`
	Status      string    `json:"status"`
	Events      int64     `json:"events"`
	AmountTotal float64   `json:"amount_total"`
}
