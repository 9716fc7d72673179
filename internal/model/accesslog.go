// Package model defines domain entities for the application.
package model

import "time"

// Access decision actions.
const (
	AccessGranted = "granted"
	AccessDenied  = "denied"
)

// AccessLog represents an access-control decision recorded at a door
// terminal. Reason is set only when access was denied.
type AccessLog struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Area      string    `json:"area"`
	Action    string    `json:"action"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	CreatedAt time.Time `json:"created_at"`
}
