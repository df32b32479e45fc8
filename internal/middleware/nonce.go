package middleware

import (
	"net/http"

	"github.com/ivyforms/ivyforms/internal/apperr"
	"github.com/ivyforms/ivyforms/internal/auth"
)

const NonceHeader = "X-IvyForms-Nonce"

// NonceVerifier checks a token against the action it was issued for.
type NonceVerifier interface {
	Verify(action, token string) error
}

// RequireNonce rejects requests whose X-IvyForms-Nonce header was not issued
// for the caller's session. It must run after Session.
func RequireNonce(nonces NonceVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sid := SessionIDFromContext(r.Context())
			if sid == "" {
				writeError(w, http.StatusForbidden, "invalid nonce")
				return
			}
			if err := nonces.Verify(auth.AdminAction(sid), r.Header.Get(NonceHeader)); err != nil {
				writeError(w, apperr.Status(err), apperr.PublicMessage(err))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
