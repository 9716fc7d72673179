// Package model defines domain entities for the application.
package model

import (
	"slices"
	"time"
)

// Application roles, ordered from most to least privileged.
const (
	RoleAdmin    = "admin"
	RoleManager  = "manager"
	RoleEmployee = "employee"
	RoleUser     = "user"
)

// ValidRoles contains all accepted role values.
var ValidRoles = []string{RoleAdmin, RoleManager, RoleEmployee, RoleUser}

// Controlled area identifiers.
const (
	AreaMainEntrance   = "main-entrance"
	AreaExecutiveFloor = "executive-floor"
	AreaServerRoom     = "server-room"
	AreaHRDepartment   = "hr-department"
	AreaFinance        = "finance-department"
)

// KnownAreas lists every controlled area a terminal can ask about.
var KnownAreas = []string{
	AreaMainEntrance,
	AreaExecutiveFloor,
	AreaServerRoom,
	AreaHRDepartment,
	AreaFinance,
}

// roleAreas maps each role to the areas it may enter.
var roleAreas = map[string][]string{
	RoleAdmin:    {AreaMainEntrance, AreaServerRoom, AreaExecutiveFloor, AreaHRDepartment, AreaFinance},
	RoleManager:  {AreaMainEntrance, AreaExecutiveFloor, AreaHRDepartment},
	RoleEmployee: {AreaMainEntrance, AreaHRDepartment},
	RoleUser:     {AreaMainEntrance},
}

// IsKnownArea reports whether area is a controlled area.
func IsKnownArea(area string) bool {
	return slices.Contains(KnownAreas, area)
}

// RoleGrantsArea reports whether a role may enter the given area.
func RoleGrantsArea(role, area string) bool {
	return slices.Contains(roleAreas[role], area)
}

// AnyRoleGrantsArea reports whether any of the roles may enter the area.
func AnyRoleGrantsArea(roles []string, area string) bool {
	for _, role := range roles {
		if RoleGrantsArea(role, area) {
			return true
		}
	}
	return false
}

// UserRole represents a role assignment row.
type UserRole struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}
