package middleware

import (
	"net/http"

	"github.com/ivyforms/ivyforms/internal/model"
)

// RequireRole returns middleware that allows only users with the specified role.
// Returns 403 Forbidden for any other role.
func RequireRole(role model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if RoleFromContext(r.Context()) != role {
				writeError(w, http.StatusForbidden, "you are not allowed to do that")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireManage allows any role that may use the admin API.
func RequireManage(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !RoleFromContext(r.Context()).CanManage() {
			writeError(w, http.StatusForbidden, "you are not allowed to do that")
			return
		}
		next.ServeHTTP(w, r)
	})
}
