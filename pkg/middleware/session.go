package middleware

import (
	"context"
	"net/http"
	"regexp"

	"github.com/google/uuid"

	"github.com/utafrali/EcommerceGo/storefront/pkg/logger"
)

// SessionIDHeader identifies the shopper's cart across requests.
const SessionIDHeader = "X-Session-ID"

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{8,128}$`)

type sessionKey struct{}

// Session resolves the storefront session from the X-Session-ID header.
// A missing header starts a new session; the ID is echoed back so the client
// can keep using it. Malformed IDs are rejected with 400.
func Session() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(SessionIDHeader)
			if id == "" {
				id = uuid.NewString()
			} else if !sessionIDPattern.MatchString(id) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error":{"code":"INVALID_SESSION","message":"malformed X-Session-ID"}}`))
				return
			}

			w.Header().Set(SessionIDHeader, id)
			ctx := context.WithValue(r.Context(), sessionKey{}, id)
			ctx = logger.WithSessionID(ctx, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionIDFromContext returns the session resolved by Session, or "".
func SessionIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}

// WithSessionID stores a session ID the way Session does. Used by tests and
// by callers that resolve sessions elsewhere.
func WithSessionID(ctx context.Context, id string) context.Context {
	return logger.WithSessionID(context.WithValue(ctx, sessionKey{}, id), id)
}
