package middleware

import (
	"context"
	"net/http"

	"github.com/ivyforms/ivyforms/internal/model"
)

const SessionCookieName = "ivyforms_session"

type contextKey string

const (
	contextKeyUser      contextKey = "user"
	contextKeySessionID contextKey = "sessionID"
)

// SessionReader retrieves the user ID for a session token.
type SessionReader interface {
	GetUserID(ctx context.Context, sessionID string) (string, error)
}

// UserByIDer retrieves an admin user by ID.
type UserByIDer interface {
	GetByID(ctx context.Context, id string) (*model.AdminUser, error)
}

func lookup(r *http.Request, sessions SessionReader, users UserByIDer) (*model.AdminUser, string, bool) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil, "", false
	}
	userID, err := sessions.GetUserID(r.Context(), cookie.Value)
	if err != nil {
		return nil, "", false
	}
	user, err := users.GetByID(r.Context(), userID)
	if err != nil {
		return nil, "", false
	}
	return user, cookie.Value, true
}

// WithUser returns a copy of ctx carrying the authenticated user and session.
func WithUser(ctx context.Context, user *model.AdminUser, sessionID string) context.Context {
	ctx = context.WithValue(ctx, contextKeyUser, user)
	return context.WithValue(ctx, contextKeySessionID, sessionID)
}

// Session middleware validates the session cookie and populates the request
// context with the user. Unauthenticated requests get a 401.
func Session(sessions SessionReader, users UserByIDer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, sid, ok := lookup(r, sessions, users)
			if !ok {
				writeError(w, http.StatusUnauthorized, "you must be logged in to access this resource")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user, sid)))
		})
	}
}

// OptionalSession attaches the user when a valid session cookie is present
// and lets anonymous requests through untouched.
func OptionalSession(sessions SessionReader, users UserByIDer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if user, sid, ok := lookup(r, sessions, users); ok {
				r = r.WithContext(WithUser(r.Context(), user, sid))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserFromContext returns the authenticated user, or nil.
func UserFromContext(ctx context.Context) *model.AdminUser {
	v, _ := ctx.Value(contextKeyUser).(*model.AdminUser)
	return v
}

// SessionIDFromContext returns the authenticated session token.
func SessionIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(contextKeySessionID).(string)
	return v
}

// RoleFromContext returns the authenticated user's role from the context.
func RoleFromContext(ctx context.Context) model.Role {
	if u := UserFromContext(ctx); u != nil {
		return u.Role
	}
	return ""
}

// IsSuperAdmin reports whether the authenticated user has the super_admin role.
func IsSuperAdmin(ctx context.Context) bool {
	return RoleFromContext(ctx) == model.RoleSuperAdmin
}
