package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dukerupert/jotter/internal/auth"
	"github.com/dukerupert/jotter/internal/session"
)

// RequireAuth resolves the session cookie and populates AuthContext. Requests
// without a live session are sent back to the landing page.
func RequireAuth(sessions session.Store, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ac, ok := resolve(sessions, logger, r)
			if !ok {
				http.Redirect(w, r, "/", http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithAuth(r.Context(), ac)))
		})
	}
}

// OptionalAuth populates AuthContext when a live session exists and passes
// every request through.
func OptionalAuth(sessions session.Store, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ac, ok := resolve(sessions, logger, r); ok {
				r = r.WithContext(auth.WithAuth(r.Context(), ac))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func resolve(sessions session.Store, logger *slog.Logger, r *http.Request) (auth.AuthContext, bool) {
	token := session.TokenFromRequest(r)
	if token == "" {
		return auth.AuthContext{}, false
	}
	sess, err := sessions.Get(r.Context(), token)
	if err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			logger.Error("session lookup failed", "error", err)
		}
		return auth.AuthContext{}, false
	}
	return auth.AuthContext{UserID: sess.UserID, Token: token, ExpiresAt: sess.ExpiresAt}, true
}
