package repository

import (
	"context"
	"fmt"

	"github.com/palmgate/palmgate/internal/model"
)

// GetRolesByUserID retrieves the role names assigned to a user.
// A user with no assignment rows has the implicit "user" role; that
// fallback lives in the service layer, not here.
func (r *Repository) GetRolesByUserID(ctx context.Context, userID string) ([]string, error) {
	query := `
		SELECT role
		FROM user_roles
		WHERE user_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get roles: %w", err)
	}
	defer rows.Close()

	var roles []string
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		roles = append(roles, role)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating roles: %w", err)
	}

	return roles, nil
}

// AssignRole grants a role to a user. Duplicate assignments are ignored.
func (r *Repository) AssignRole(ctx context.Context, assignment *model.UserRole) error {
	query := `
		INSERT INTO user_roles (id, user_id, role, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, role) DO NOTHING
	`

	_, err := r.pool.Exec(ctx, query,
		assignment.ID,
		assignment.UserID,
		assignment.Role,
		assignment.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to assign role: %w", err)
	}

	return nil
}
