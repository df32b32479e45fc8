package handler

import (
	"context"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ivyforms/ivyforms/internal/apperr"
	"github.com/ivyforms/ivyforms/internal/auth"
	appmw "github.com/ivyforms/ivyforms/internal/middleware"
	"github.com/ivyforms/ivyforms/internal/model"
	"github.com/ivyforms/ivyforms/internal/placeholder"
	"github.com/ivyforms/ivyforms/internal/submission"
)

type submitter interface {
	Submit(ctx context.Context, formID int64, req submission.Request, meta placeholder.Meta) (*submission.Result, error)
}

// PublicHandler serves published forms to site visitors and accepts their
// submissions.
type PublicHandler struct {
	BaseHandler
	forms      formGetter
	settings   settingsLoader
	nonces     nonceIssuer
	submitter  submitter
	templates  *template.Template
	submitBase string
}

func NewPublicHandler(logger *slog.Logger, forms formGetter, settings settingsLoader, nonces nonceIssuer, s submitter, tmpl *template.Template, apiBase string) *PublicHandler {
	return &PublicHandler{
		BaseHandler: BaseHandler{Logger: logger},
		forms:       forms,
		settings:    settings,
		nonces:      nonces,
		submitter:   s,
		templates:   tmpl,
		submitBase:  apiBase,
	}
}

func (h *PublicHandler) publishedForm(r *http.Request) (*model.Form, error) {
	id, err := idParam(r, "id")
	if err != nil {
		return nil, err
	}
	f, err := h.forms.Get(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if !f.Published() {
		return nil, apperr.NotFound("form %d not found", id)
	}
	return f, nil
}

// Form returns a published form and a nonce for submitting it.
func (h *PublicHandler) Form(w http.ResponseWriter, r *http.Request) {
	f, err := h.publishedForm(r)
	if err != nil {
		h.appErrorResponse(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, "ok", envelope{
		"form":  f,
		"nonce": h.nonces.Issue(auth.FormAction(f.ID)),
	})
}

// Submit accepts a submission for a published form.
func (h *PublicHandler) Submit(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.appErrorResponse(w, r, err)
		return
	}
	var req submission.Request
	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	if req.PostID < 0 {
		h.appErrorResponse(w, r, apperr.InvalidArgument("postId must not be negative"))
		return
	}

	meta := placeholder.Meta{
		IP:        appmw.ClientIP(r),
		UserAgent: r.UserAgent(),
		Referer:   req.Referer,
		PostID:    req.PostID,
		User:      appmw.UserFromContext(r.Context()),
	}
	if meta.Referer == "" {
		meta.Referer = r.Referer()
	}

	res, err := h.submitter.Submit(r.Context(), id, req, meta)
	if err != nil {
		h.appErrorResponse(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, "submission received", res)
}

// Render serves the standalone HTML page for a published form.
func (h *PublicHandler) Render(w http.ResponseWriter, r *http.Request) {
	f, err := h.publishedForm(r)
	if err != nil {
		status := apperr.Status(err)
		if status >= http.StatusInternalServerError {
			h.logError(r, err)
		}
		http.Error(w, http.StatusText(status), status)
		return
	}
	siteTitle := ""
	if s, err := h.settings.Load(r.Context()); err == nil {
		siteTitle = s.SiteTitle
	}
	postID, _ := strconv.ParseInt(r.URL.Query().Get("post"), 10, 64)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err = h.templates.ExecuteTemplate(w, "form.html", map[string]any{
		"Form":      f,
		"SiteTitle": siteTitle,
		"Nonce":     h.nonces.Issue(auth.FormAction(f.ID)),
		"SubmitURL": h.submitBase + "/forms/" + strconv.FormatInt(f.ID, 10) + "/submit",
		"PostID":    postID,
	})
	if err != nil {
		h.logger().Error("public: template error", "form_id", f.ID, "err", err)
	}
}
