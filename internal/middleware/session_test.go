package middleware

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/palmgate/palmgate/internal/auth"
)

const testSessionSecret = "test-secret-at-least-32-bytes-long!!"

func newSessionMiddleware() func(http.Handler) http.Handler {
	return Session(SessionConfig{
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Verifier: auth.NewSessionVerifier(testSessionSecret),
	})
}

func TestSession_ValidToken(t *testing.T) {
	token, err := auth.MintSessionToken(testSessionSecret, "user123", "user@example.com", time.Hour)
	if err != nil {
		t.Fatalf("failed to mint token: %v", err)
	}

	var gotUserID string
	handler := newSessionMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := auth.SessionFromContext(r.Context())
		if session != nil {
			gotUserID = session.UserID
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if gotUserID != "user123" {
		t.Errorf("expected session user user123, got %q", gotUserID)
	}
}

func TestSession_MissingToken(t *testing.T) {
	handler := newSessionMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", rec.Code)
	}

	// The error body uses the same flat envelope as every handler.
	var body struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse error body: %v", err)
	}
	if body.Error == "" {
		t.Error("error body missing 'error' field")
	}
	if body.Code != "UNAUTHORIZED" {
		t.Errorf("expected code UNAUTHORIZED, got %q", body.Code)
	}
}

func TestSession_ExpiredToken(t *testing.T) {
	token, err := auth.MintSessionToken(testSessionSecret, "user123", "user@example.com", -time.Minute)
	if err != nil {
		t.Fatalf("failed to mint token: %v", err)
	}

	handler := newSessionMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", rec.Code)
	}
}

func TestSession_WrongSecret(t *testing.T) {
	token, err := auth.MintSessionToken("a-different-secret-32-bytes-long!!!!", "user123", "user@example.com", time.Hour)
	if err != nil {
		t.Fatalf("failed to mint token: %v", err)
	}

	handler := newSessionMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", rec.Code)
	}
}
