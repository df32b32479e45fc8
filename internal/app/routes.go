package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/ivyforms/ivyforms/internal/handler"
	"github.com/ivyforms/ivyforms/internal/middleware"
	"github.com/ivyforms/ivyforms/internal/web"
)

// APIBase is the REST namespace.
const APIBase = "/api/ivyforms/v1"

func (app *App) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLog(app.logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.SecurityHeaders(app.config.SecureCookies))

	// Static files
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(web.StaticFS)))

	// Health check
	r.Get("/api/health", handler.Health(app.db, Version))

	publicHandler := handler.NewPublicHandler(app.logger, app.formStore, app.settingsStore, app.nonces, app.submissions, web.Templates, APIBase)
	r.Get("/forms/{id}", publicHandler.Render)

	sessionMW := middleware.Session(app.sessionStore, app.userStore)

	r.Route(APIBase, func(r chi.Router) {
		// Public
		r.Get("/forms/{id}/public", publicHandler.Form)
		r.With(
			middleware.PerMinute(app.rateLimit),
			middleware.OptionalSession(app.sessionStore, app.userStore),
		).Post("/forms/{id}/submit", publicHandler.Submit)

		authHandler := handler.NewAuthHandler(app.logger, app.userStore, app.sessionStore, app.nonces, app.config.SecureCookies)
		r.Post("/auth/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(sessionMW)
			r.Get("/auth/me", authHandler.Me)
			r.Post("/auth/logout", authHandler.Logout)
		})

		// Admin
		r.Group(func(r chi.Router) {
			r.Use(sessionMW)
			r.Use(middleware.RequireManage)
			r.Use(middleware.RequireNonce(app.nonces))

			formHandler := handler.NewFormHandler(app.logger, app.formStore, app.settingsStore, app.pageStore)
			r.Get("/forms", formHandler.List)
			r.Post("/forms", formHandler.Create)
			r.Get("/forms/{id}", formHandler.Get)
			r.Put("/forms/{id}", formHandler.Update)
			r.Delete("/forms/{id}", formHandler.Delete)
			r.Post("/forms/{id}/duplicate", formHandler.Duplicate)
			r.Put("/forms/{id}/fields", formHandler.ReplaceFields)
			r.Post("/forms/{id}/preview", formHandler.Preview)

			notificationHandler := handler.NewNotificationHandler(app.logger, app.formStore, app.notificationStore)
			r.Get("/forms/{id}/notifications", notificationHandler.List)
			r.Post("/forms/{id}/notifications", notificationHandler.Create)
			r.Put("/notifications/{nid}", notificationHandler.Update)
			r.Delete("/notifications/{nid}", notificationHandler.Delete)

			confirmationHandler := handler.NewConfirmationHandler(app.logger, app.formStore, app.confirmationStore)
			r.Get("/forms/{id}/confirmations", confirmationHandler.List)
			r.Post("/forms/{id}/confirmations", confirmationHandler.Create)
			r.Put("/confirmations/{cid}", confirmationHandler.Update)
			r.Delete("/confirmations/{cid}", confirmationHandler.Delete)

			entryHandler := handler.NewEntryHandler(app.logger, app.formStore, app.entryStore)
			r.Get("/forms/{id}/entries", entryHandler.List)
			r.Get("/entries/{eid}", entryHandler.Get)
			r.Delete("/entries/{eid}", entryHandler.Delete)
			r.Post("/entries/{eid}/read", entryHandler.MarkRead)
			r.Post("/entries/{eid}/star", entryHandler.Star)

			pageHandler := handler.NewPageHandler(app.logger, app.pageStore)
			r.Get("/pages", pageHandler.List)
			r.Post("/pages", pageHandler.Create)

			settingsHandler := handler.NewSettingsHandler(app.logger, app.settingsStore, app.mailer)
			r.Get("/settings", settingsHandler.Get)
			r.Put("/settings", settingsHandler.Update)
			r.Post("/settings/test-email", settingsHandler.TestEmail)
		})
	})
	return r
}
