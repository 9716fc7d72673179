// Package auth provides authentication utilities for terminal keys and
// user sessions.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/palmgate/palmgate/internal/model"
)

// Session token errors.
var (
	ErrInvalidSessionToken = errors.New("invalid session token")
	ErrSessionExpired      = errors.New("session token expired")
)

// SessionVerifier validates bearer tokens minted by the external identity
// provider. Only verification happens here; login, signup and token minting
// are the provider's job.
type SessionVerifier struct {
	secret []byte
}

// NewSessionVerifier creates a verifier for HS256 session tokens signed
// with the shared secret.
func NewSessionVerifier(secret string) *SessionVerifier {
	return &SessionVerifier{secret: []byte(secret)}
}

// sessionClaims mirrors the provider's access-token claims.
type sessionClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Verify parses and validates a session token, returning the session it
// represents.
func (v *SessionVerifier) Verify(tokenString string) (*model.Session, error) {
	claims := &sessionClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrSessionExpired
		}
		return nil, ErrInvalidSessionToken
	}

	if !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidSessionToken
	}

	session := &model.Session{
		UserID: claims.Subject,
		Email:  claims.Email,
	}
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time
	}

	return session, nil
}

// MintSessionToken creates a signed session token. Production tokens come
// from the identity provider; this is for tests and local development.
func MintSessionToken(secret, userID, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &sessionClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}
