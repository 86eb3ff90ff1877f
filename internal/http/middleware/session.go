package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/wolfman30/medic-pro/internal/auth"
)

// SessionVerifier is satisfied by *auth.Sessions.
type SessionVerifier interface {
	Verify(token string) (auth.Identity, error)
}

// RequireSession rejects requests without a valid bearer session and puts the
// verified identity in the request context.
func RequireSession(sessions SessionVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" || !strings.HasPrefix(header, "Bearer ") {
				writeError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}
			id, err := sessions.Verify(strings.TrimSpace(strings.TrimPrefix(header, "Bearer ")))
			if err != nil {
				if errors.Is(err, auth.ErrSessionsDisabled) {
					writeError(w, http.StatusUnauthorized, "sign-in disabled")
					return
				}
				writeError(w, http.StatusUnauthorized, "invalid session")
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
		})
	}
}
