package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ivyforms/ivyforms/internal/mailer"
	"github.com/ivyforms/ivyforms/internal/model"
)

type settingsStore interface {
	Load(ctx context.Context) (*model.Settings, error)
	Update(ctx context.Context, in model.Settings) (*model.Settings, error)
}

type mailConfigurer interface {
	Reconfigure(cfg *mailer.Config)
	SendTest() error
}

// SettingsHandler handles the admin settings API.
type SettingsHandler struct {
	BaseHandler
	settings settingsStore
	mailer   mailConfigurer
}

func NewSettingsHandler(logger *slog.Logger, settings settingsStore, m mailConfigurer) *SettingsHandler {
	return &SettingsHandler{BaseHandler: BaseHandler{Logger: logger}, settings: settings, mailer: m}
}

// Get returns the current settings with secrets masked.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, err := h.settings.Load(r.Context())
	if err != nil {
		h.appErrorResponse(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, "ok", s.Masked())
}

// Update saves settings and applies the SMTP part to the mailer.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in model.Settings
	if err := h.readJSON(w, r, &in); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	s, err := h.settings.Update(r.Context(), in)
	if err != nil {
		h.appErrorResponse(w, r, err)
		return
	}
	h.mailer.Reconfigure(mailer.NewConfigFromSettings(s))
	h.logger().Info("settings: updated", "user_id", userID(r))
	h.respond(w, r, http.StatusOK, "settings saved", s.Masked())
}

// TestEmail sends a test email to the admin address with the stored settings.
func (h *SettingsHandler) TestEmail(w http.ResponseWriter, r *http.Request) {
	s, err := h.settings.Load(r.Context())
	if err != nil {
		h.appErrorResponse(w, r, err)
		return
	}
	h.mailer.Reconfigure(mailer.NewConfigFromSettings(s))
	if err := h.mailer.SendTest(); err != nil {
		h.logger().Error("settings: test email failed", "err", err)
		h.errorResponse(w, r, http.StatusBadGateway, "send failed: "+err.Error())
		return
	}
	h.respond(w, r, http.StatusOK, "test email sent", nil)
}
