package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
)

type contextKeyType string

const userIDKey contextKeyType = "user_id"

// Identity extracts the authenticated user ID from the X-User-ID header set
// by the upstream gateway and stores it in the request context. The identity
// provider has already verified credentials; this service trusts the header.
// Requests without the header pass through unauthenticated (read-only
// endpoints allow anonymous access).
func Identity() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id := r.Header.Get("X-User-ID"); id != "" {
				ctx := context.WithValue(r.Context(), userIDKey, id)
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireUser rejects requests that carry no authenticated user ID, or one
// that is not a valid UUID.
func RequireUser() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := UserIDFromContext(r.Context())
			if id == "" {
				writeAuthError(w, "authentication required")
				return
			}
			if _, err := uuid.Parse(id); err != nil {
				writeAuthError(w, "invalid user id")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserIDFromContext extracts the user ID from the request context.
func UserIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey).(string); ok {
		return id
	}
	return ""
}

func writeAuthError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"code":    "UNAUTHORIZED",
		"message": message,
	})
}
