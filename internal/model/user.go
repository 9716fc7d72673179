// Package model defines domain entities for the application.
package model

import "time"

// User represents a minimal account entity. Signup and password handling
// live in the external identity provider; this row anchors foreign keys.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Session holds the authenticated end-user identity, verified from a
// bearer token minted by the external identity provider.
type Session struct {
	UserID    string
	Email     string
	ExpiresAt time.Time
}
