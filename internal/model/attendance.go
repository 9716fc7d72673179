// Package model defines domain entities for the application.
package model

import (
	"slices"
	"time"
)

// Attendance record types.
const (
	AttendanceCheckIn  = "check-in"
	AttendanceCheckOut = "check-out"
	AttendanceBreak    = "break"
)

// ValidAttendanceTypes contains all accepted attendance record types.
var ValidAttendanceTypes = []string{AttendanceCheckIn, AttendanceCheckOut, AttendanceBreak}

// IsValidAttendanceType reports whether t is an accepted record type.
func IsValidAttendanceType(t string) bool {
	return slices.Contains(ValidAttendanceTypes, t)
}

// AttendanceRecord represents a palm-verified attendance event.
type AttendanceRecord struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Type      string    `json:"type"`
	Location  string    `json:"location,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	CreatedAt time.Time `json:"created_at"`
}
