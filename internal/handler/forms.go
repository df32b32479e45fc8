package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ivyforms/ivyforms/internal/mailer"
	appmw "github.com/ivyforms/ivyforms/internal/middleware"
	"github.com/ivyforms/ivyforms/internal/model"
	"github.com/ivyforms/ivyforms/internal/placeholder"
	"github.com/ivyforms/ivyforms/internal/submission"
)

type formStore interface {
	List(ctx context.Context) ([]model.Form, error)
	Get(ctx context.Context, id int64) (*model.Form, error)
	Create(ctx context.Context, f *model.Form) error
	Update(ctx context.Context, f *model.Form) error
	Delete(ctx context.Context, id int64) error
	Duplicate(ctx context.Context, id int64) (*model.Form, error)
	ReplaceFields(ctx context.Context, formID int64, fields []model.Field) ([]model.Field, error)
}

type settingsLoader interface {
	Load(ctx context.Context) (*model.Settings, error)
}

// FormHandler serves the admin form builder API.
type FormHandler struct {
	BaseHandler
	forms    formStore
	settings settingsLoader
	pages    placeholder.PostFinder
}

func NewFormHandler(logger *slog.Logger, forms formStore, settings settingsLoader, pages placeholder.PostFinder) *FormHandler {
	return &FormHandler{BaseHandler: BaseHandler{Logger: logger}, forms: forms, settings: settings, pages: pages}
}

func (h *FormHandler) List(w http.ResponseWriter, r *http.Request) {
	forms, err := h.forms.List(r.Context())
	if err != nil {
		h.appErrorResponse(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, "ok", forms)
}

func (h *FormHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.appErrorResponse(w, r, err)
		return
	}
	f, err := h.forms.Get(r.Context(), id)
	if err != nil {
		h.appErrorResponse(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, "ok", f)
}

func (h *FormHandler) Create(w http.ResponseWriter, r *http.Request) {
	var f model.Form
	if err := h.readJSON(w, r, &f); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	if err := h.forms.Create(r.Context(), &f); err != nil {
		h.appErrorResponse(w, r, err)
		return
	}
	h.logger().Info("forms: created", "form_id", f.ID, "user_id", userID(r))
	h.respond(w, r, http.StatusCreated, "form created", f)
}

type formUpdate struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Status      model.FormStatus `json:"status"`
	ShowTitle   bool             `json:"showTitle"`
}

// Update writes the form settings. Fields are replaced through ReplaceFields.
func (h *FormHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.appErrorResponse(w, r, err)
		return
	}
	var in formUpdate
	if err := h.readJSON(w, r, &in); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	f := &model.Form{ID: id, Name: in.Name, Description: in.Description, Status: in.Status, ShowTitle: in.ShowTitle}
	if err := h.forms.Update(r.Context(), f); err != nil {
		h.appErrorResponse(w, r, err)
		return
	}
	updated, err := h.forms.Get(r.Context(), id)
	if err != nil {
		h.appErrorResponse(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, "form updated", updated)
}

func (h *FormHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.appErrorResponse(w, r, err)
		return
	}
	if err := h.forms.Delete(r.Context(), id); err != nil {
		h.appErrorResponse(w, r, err)
		return
	}
	h.logger().Info("forms: deleted", "form_id", id, "user_id", userID(r))
	h.respond(w, r, http.StatusOK, "form deleted", nil)
}

func (h *FormHandler) Duplicate(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.appErrorResponse(w, r, err)
		return
	}
	f, err := h.forms.Duplicate(r.Context(), id)
	if err != nil {
		h.appErrorResponse(w, r, err)
		return
	}
	h.respond(w, r, http.StatusCreated, "form duplicated", f)
}

func (h *FormHandler) ReplaceFields(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.appErrorResponse(w, r, err)
		return
	}
	var in struct {
		Fields []model.Field `json:"fields"`
	}
	if err := h.readJSON(w, r, &in); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	fields, err := h.forms.ReplaceFields(r.Context(), id, in.Fields)
	if err != nil {
		h.appErrorResponse(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, "fields saved", fields)
}

const (
	previewNotification = "notification"
	previewConfirmation = "confirmation"
)

type previewRequest struct {
	Template string `json:"template"`
	Target   string `json:"target"`
}

// Preview renders a notification or confirmation template against sample
// values taken from each field's placeholder text.
func (h *FormHandler) Preview(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.appErrorResponse(w, r, err)
		return
	}
	var in previewRequest
	if err := h.readJSON(w, r, &in); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	f, err := h.forms.Get(r.Context(), id)
	if err != nil {
		h.appErrorResponse(w, r, err)
		return
	}

	var out string
	switch in.Target {
	case previewNotification, "":
		out = mailer.RenderPreview(in.Template, f.Fields)
	case previewConfirmation:
		settings, err := h.settings.Load(r.Context())
		if err != nil {
			h.appErrorResponse(w, r, err)
			return
		}
		samples := make(map[int64]any, len(f.Fields))
		for _, fl := range f.Fields {
			samples[fl.ID] = sampleValue(fl)
		}
		general := (&placeholder.GeneralDataBuilder{Settings: *settings, Posts: h.pages}).Build(r.Context(), 0, placeholder.Meta{
			IP:        appmw.ClientIP(r),
			UserAgent: r.UserAgent(),
			User:      appmw.UserFromContext(r.Context()),
		})
		out = placeholder.Replace(in.Template,
			placeholder.BuildFieldData(f.Fields, samples, submission.FormatValue),
			submission.FormatGeneral(general),
			placeholder.BuildFieldLabels(f.Fields))
	default:
		h.errorResponse(w, r, http.StatusBadRequest, "target must be notification or confirmation")
		return
	}
	h.respond(w, r, http.StatusOK, "ok", envelope{"html": out})
}

func sampleValue(f model.Field) string {
	if f.Placeholder != "" {
		return f.Placeholder
	}
	return "[" + f.Label + "]"
}

func userID(r *http.Request) string {
	if u := appmw.UserFromContext(r.Context()); u != nil {
		return u.ID
	}
	return ""
}
