package middleware

import (
	"context"
	"net/http"

	"github.com/rohitpal/userhub/backend/internal/auth"
)

type ctxKey int

const userIDKey ctxKey = iota

// SessionReader resolves a session ID to a user ID; 0 means no session.
type SessionReader interface {
	Get(ctx context.Context, sessionID string) (int64, error)
}

// RequireAuth validates the session cookie and injects the user ID into
// the request context.
func RequireAuth(sessions SessionReader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(auth.SessionCookie)
			if err != nil {
				http.Error(w, `{"message":"not authenticated"}`, http.StatusUnauthorized)
				return
			}

			userID, err := sessions.Get(r.Context(), cookie.Value)
			if err != nil || userID == 0 {
				http.Error(w, `{"message":"session expired"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserID returns the authenticated user ID stored by RequireAuth.
func UserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok
}
