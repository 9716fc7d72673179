// Package model defines domain entities for the application.
package model

import "time"

// Profile represents a user's profile row. The row is created at account
// signup; the linking flow later stamps PalmScanID to associate the account
// with a captured palm-scan identifier.
type Profile struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	FullName   string    `json:"full_name"`
	PalmScanID *string   `json:"palm_scan_id,omitempty"`
	Department string    `json:"department,omitempty"`
	EmployeeID string    `json:"employee_id,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	AvatarURL  string    `json:"avatar_url,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// HasPalm reports whether a palm-scan identifier is attached.
func (p *Profile) HasPalm() bool {
	return p.PalmScanID != nil && *p.PalmScanID != ""
}

// CachedProfile represents profile data stored in Redis for the
// palm-verification hot path. Uses string types for Redis hash compatibility.
type CachedProfile struct {
	UserID     string `redis:"user_id"`
	FullName   string `redis:"full_name"`
	Department string `redis:"department"`
	EmployeeID string `redis:"employee_id"`
}

// ToProfile converts CachedProfile to the Profile domain model.
func (c *CachedProfile) ToProfile(palmScanID string) *Profile {
	p := &Profile{
		UserID:     c.UserID,
		FullName:   c.FullName,
		Department: c.Department,
		EmployeeID: c.EmployeeID,
	}
	if palmScanID != "" {
		p.PalmScanID = &palmScanID
	}
	return p
}

// ToCachedProfile converts a Profile to its cached form.
func (p *Profile) ToCachedProfile() *CachedProfile {
	return &CachedProfile{
		UserID:     p.UserID,
		FullName:   p.FullName,
		Department: p.Department,
		EmployeeID: p.EmployeeID,
	}
}
