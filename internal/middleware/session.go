package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/palmgate/palmgate/internal/auth"
)

// SessionConfig holds configuration for the user session middleware.
type SessionConfig struct {
	Logger   *slog.Logger
	Verifier *auth.SessionVerifier
}

// Session returns a middleware that authenticates end-user requests.
// It verifies the bearer token minted by the identity provider and
// injects the session into the request context. Terminals use Auth
// instead; the two middlewares never share a route group.
func Session(cfg SessionConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearerToken(r)
			if token == "" {
				cfg.Logger.Warn("session auth failed",
					slog.String("reason", "missing_token"),
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeSessionError(w)
				return
			}

			session, err := cfg.Verifier.Verify(token)
			if err != nil {
				cfg.Logger.Warn("session auth failed",
					slog.String("reason", "invalid_token"),
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeSessionError(w)
				return
			}

			ctx := auth.ContextWithSession(r.Context(), session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractBearerToken pulls the bearer token from the Authorization header.
func extractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

// writeSessionError writes a 401 Unauthorized response.
// Uses the same message for all session failures to prevent probing.
func writeSessionError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"Invalid or missing session token","code":"UNAUTHORIZED"}`))
}
