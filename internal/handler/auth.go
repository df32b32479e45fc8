package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/ivyforms/ivyforms/internal/auth"
	appmw "github.com/ivyforms/ivyforms/internal/middleware"
	"github.com/ivyforms/ivyforms/internal/model"
	"github.com/ivyforms/ivyforms/internal/store"
)

type userGetterByLogin interface {
	GetByLogin(ctx context.Context, login string) (*model.AdminUser, string, error)
	UpdateLastLogin(ctx context.Context, id string) error
}

type sessionCreatorDeleter interface {
	Create(ctx context.Context, userID string) (string, error)
	Delete(ctx context.Context, sessionID string) error
}

type nonceIssuer interface {
	Issue(action string) string
}

// AuthHandler handles admin authentication.
type AuthHandler struct {
	BaseHandler
	users         userGetterByLogin
	sessions      sessionCreatorDeleter
	nonces        nonceIssuer
	secureCookies bool
}

func NewAuthHandler(logger *slog.Logger, users userGetterByLogin, sessions sessionCreatorDeleter, nonces nonceIssuer, secureCookies bool) *AuthHandler {
	return &AuthHandler{BaseHandler: BaseHandler{Logger: logger}, users: users, sessions: sessions, nonces: nonces, secureCookies: secureCookies}
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// Login authenticates an admin by username or email and issues a session
// cookie. The response carries the nonce for subsequent admin requests.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := h.readJSON(w, r, &in); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	user, hash, err := h.users.GetByLogin(r.Context(), in.Login)
	if err != nil || !auth.Verify(hash, in.Password) {
		h.errorResponse(w, r, http.StatusUnauthorized, "invalid username or password")
		return
	}
	if !user.Role.CanManage() {
		h.errorResponse(w, r, http.StatusForbidden, "you are not allowed to do that")
		return
	}

	sessionID, err := h.sessions.Create(r.Context(), user.ID)
	if err != nil {
		h.appErrorResponse(w, r, err)
		return
	}

	if err := h.users.UpdateLastLogin(r.Context(), user.ID); err != nil {
		h.logger().Warn("auth: failed to record login", "user_id", user.ID, "err", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     appmw.SessionCookieName,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
		Expires:  time.Now().Add(store.SessionTTL),
	})
	h.respond(w, r, http.StatusOK, "logged in", envelope{
		"user":  user,
		"nonce": h.nonces.Issue(auth.AdminAction(sessionID)),
	})
}

// Logout ends the current session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if sid := appmw.SessionIDFromContext(r.Context()); sid != "" {
		if err := h.sessions.Delete(r.Context(), sid); err != nil {
			h.appErrorResponse(w, r, err)
			return
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     appmw.SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1,
	})
	h.respond(w, r, http.StatusOK, "logged out", nil)
}

// Me returns the current user and a fresh admin nonce.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, http.StatusOK, "ok", envelope{
		"user":  appmw.UserFromContext(r.Context()),
		"nonce": h.nonces.Issue(auth.AdminAction(appmw.SessionIDFromContext(r.Context()))),
	})
}
