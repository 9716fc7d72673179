// Package auth provides authentication utilities for terminal keys and
// user sessions.
package auth

import (
	"context"

	"github.com/palmgate/palmgate/internal/model"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// authContextKey is the context key for the terminal auth context.
	authContextKey contextKey = "auth_context"
	// sessionContextKey is the context key for the user session.
	sessionContextKey contextKey = "session"
)

// ContextWithAuth adds a terminal AuthContext to the context.
func ContextWithAuth(ctx context.Context, auth *model.AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey, auth)
}

// AuthFromContext retrieves the terminal AuthContext from the context.
// Returns nil if not present.
func AuthFromContext(ctx context.Context) *model.AuthContext {
	auth, ok := ctx.Value(authContextKey).(*model.AuthContext)
	if !ok {
		return nil
	}
	return auth
}

// ContextWithSession adds a user Session to the context.
func ContextWithSession(ctx context.Context, session *model.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, session)
}

// SessionFromContext retrieves the user Session from the context.
// Returns nil if not present.
func SessionFromContext(ctx context.Context) *model.Session {
	session, ok := ctx.Value(sessionContextKey).(*model.Session)
	if !ok {
		return nil
	}
	return session
}

// UserIDFromContext returns the user id of the authenticated session,
// or the terminal owner's user id when no session is present.
// Returns empty string if unauthenticated.
func UserIDFromContext(ctx context.Context) string {
	if session := SessionFromContext(ctx); session != nil {
		return session.UserID
	}
	if auth := AuthFromContext(ctx); auth != nil {
		return auth.UserID
	}
	return ""
}

// KeyIDFromContext is a convenience function to get the terminal key ID.
// Returns empty string if not terminal-authenticated.
func KeyIDFromContext(ctx context.Context) string {
	auth := AuthFromContext(ctx)
	if auth == nil {
		return ""
	}
	return auth.KeyID
}
