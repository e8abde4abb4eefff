package middleware

import (
	"net/http"

	"github.com/ayush/gyancoder/backend/internal/auth"
)

// RequireAuth validates the session cookie and injects the username into the
// request context.
func RequireAuth(sessions auth.Sessions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(auth.SessionCookie)
			if err != nil {
				http.Error(w, `{"error":"not authenticated"}`, http.StatusUnauthorized)
				return
			}

			username, err := sessions.Get(r.Context(), cookie.Value)
			if err != nil || username == "" {
				http.Error(w, `{"error":"session expired"}`, http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), username)))
		})
	}
}
