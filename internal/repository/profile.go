package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/palmgate/palmgate/internal/model"
)

// ErrProfileNotFound is returned when no profile matches the lookup.
var ErrProfileNotFound = errors.New("profile not found")

// GetProfileByUserID retrieves a profile by its owning user ID.
func (r *Repository) GetProfileByUserID(ctx context.Context, userID string) (*model.Profile, error) {
	query := `
		SELECT id, user_id, full_name, palm_scan_id, department, employee_id, phone, avatar_url, created_at, updated_at
		FROM profiles
		WHERE user_id = $1
	`

	profile, err := scanProfile(r.pool.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile by user ID: %w", err)
	}

	return profile, nil
}

// GetProfileByPalmScanID retrieves a profile by its palm scan identifier.
// This is the hot path for palm verification at terminals.
func (r *Repository) GetProfileByPalmScanID(ctx context.Context, palmScanID string) (*model.Profile, error) {
	query := `
		SELECT id, user_id, full_name, palm_scan_id, department, employee_id, phone, avatar_url, created_at, updated_at
		FROM profiles
		WHERE palm_scan_id = $1
	`

	profile, err := scanProfile(r.pool.QueryRow(ctx, query, palmScanID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile by palm scan ID: %w", err)
	}

	return profile, nil
}

// UpdateProfile updates a profile's mutable fields.
func (r *Repository) UpdateProfile(ctx context.Context, profile *model.Profile) error {
	query := `
		UPDATE profiles
		SET full_name = $2, department = $3, employee_id = $4, phone = $5, avatar_url = $6, updated_at = $7
		WHERE user_id = $1
	`

	result, err := r.pool.Exec(ctx, query,
		profile.UserID,
		profile.FullName,
		profile.Department,
		profile.EmployeeID,
		profile.Phone,
		profile.AvatarURL,
		profile.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrProfileNotFound
	}

	return nil
}

func scanProfile(row pgx.Row) (*model.Profile, error) {
	var p model.Profile
	var department, employeeID, phone, avatarURL *string

	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.FullName,
		&p.PalmScanID,
		&department,
		&employeeID,
		&phone,
		&avatarURL,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if department != nil {
		p.Department = *department
	}
	if employeeID != nil {
		p.EmployeeID = *employeeID
	}
	if phone != nil {
		p.Phone = *phone
	}
	if avatarURL != nil {
		p.AvatarURL = *avatarURL
	}
	return &p, nil
}
