// Package middleware provides the HTTP middleware chain: request
// identity, logging, panic recovery, terminal-key and session auth,
// scope enforcement, and rate limiting.
package middleware

import (
	"context"
	"net/http"

	"github.com/oklog/ulid/v2"
)

// contextKey is a private type so middleware context values cannot
// collide with keys from other packages.
type contextKey string

const requestIDKey contextKey = "request_id"

// RequestIDHeader carries the request ID on both requests and
// responses. Terminals echo it back in support tickets, so an inbound
// value is trusted as-is rather than regenerated.
const RequestIDHeader = "X-Request-ID"

// RequestID assigns each request a ULID and exposes it on the response.
// ULIDs sort by time, which keeps log correlation cheap when scanning
// a window of terminal traffic.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = ulid.Make().String()
		}

		w.Header().Set(RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID returns the request ID set by RequestID, or "" when the
// middleware did not run.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}
