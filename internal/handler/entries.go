package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ivyforms/ivyforms/internal/apperr"
	"github.com/ivyforms/ivyforms/internal/model"
)

type entryStore interface {
	Get(ctx context.Context, id int64) (*model.Entry, error)
	ListByForm(ctx context.Context, formID int64, limit, offset int) ([]model.Entry, int, error)
	Delete(ctx context.Context, id int64) error
	SetStatus(ctx context.Context, id int64, status model.EntryStatus) error
	SetStarred(ctx context.Context, id int64, starred bool) error
}

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

type EntryHandler struct {
	BaseHandler
	forms   formGetter
	entries entryStore
}

func NewEntryHandler(logger *slog.Logger, forms formGetter, entries entryStore) *EntryHandler {
	return &EntryHandler{BaseHandler: BaseHandler{Logger: logger}, forms: forms, entries: entries}
}

// List returns one page of a form's entries, newest first.
func (h *EntryHandler) List(w http.ResponseWriter, r *http.Request) {
	formID, err := idParam(r, "id")
	if err != nil {
		h.appErrorResponse(w, r, err)
		return
	}
	page, err := queryInt(r, "page", 1)
	if err != nil {
		h.appErrorResponse(w, r, err)
		return
	}
	perPage, err := queryInt(r, "perPage", defaultPerPage)
	if err != nil {
		h.appErrorResponse(w, r, err)
		return
	}
	if page < 1 || perPage < 1 || perPage > maxPerPage {
		h.appErrorResponse(w, r, apperr.InvalidArgument("page must be at least 1 and perPage between 1 and %d", maxPerPage))
		return
	}
	if _, err := h.forms.Get(r.Context(), formID); err != nil {
		h.appErrorResponse(w, r, err)
		return
	}

	entries, total, err := h.entries.ListByForm(r.Context(), formID, perPage, (page-1)*perPage)
	if err != nil {
		h.appErrorResponse(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, "ok", envelope{
		"entries": entries,
		"total":   total,
		"page":    page,
		"perPage": perPage,
	})
}

type entryView struct {
	*model.Entry
	Values []entryValue `json:"values"`
}

type entryValue struct {
	FieldID int64  `json:"fieldId"`
	Label   string `json:"label"`
	Value   any    `json:"value"`
}

// Get returns an entry with its values labelled by the form's current fields.
func (h *EntryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "eid")
	if err != nil {
		h.appErrorResponse(w, r, err)
		return
	}
	e, err := h.entries.Get(r.Context(), id)
	if err != nil {
		h.appErrorResponse(w, r, err)
		return
	}
	form, err := h.forms.Get(r.Context(), e.FormID)
	if err != nil {
		h.appErrorResponse(w, r, err)
		return
	}

	view := entryView{Entry: e, Values: []entryValue{}}
	for _, ef := range e.Fields {
		label := ""
		if f := form.FieldByID(ef.FieldID); f != nil {
			label = f.Label
		}
		view.Values = append(view.Values, entryValue{FieldID: ef.FieldID, Label: label, Value: model.DecodeValue(ef.Value)})
	}
	h.respond(w, r, http.StatusOK, "ok", view)
}

func (h *EntryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "eid")
	if err != nil {
		h.appErrorResponse(w, r, err)
		return
	}
	if err := h.entries.Delete(r.Context(), id); err != nil {
		h.appErrorResponse(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, "entry deleted", nil)
}

// MarkRead sets the entry's read status. The body is optional and defaults
// to {"read": true}.
func (h *EntryHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "eid")
	if err != nil {
		h.appErrorResponse(w, r, err)
		return
	}
	in := struct {
		Read *bool `json:"read"`
	}{}
	if r.ContentLength != 0 {
		if err := h.readJSON(w, r, &in); err != nil {
			h.badRequestResponse(w, r, err)
			return
		}
	}
	status := model.EntryRead
	if in.Read != nil && !*in.Read {
		status = model.EntryUnread
	}
	if err := h.entries.SetStatus(r.Context(), id, status); err != nil {
		h.appErrorResponse(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, "entry updated", envelope{"status": status})
}

func (h *EntryHandler) Star(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "eid")
	if err != nil {
		h.appErrorResponse(w, r, err)
		return
	}
	var in struct {
		Starred bool `json:"starred"`
	}
	if err := h.readJSON(w, r, &in); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	if err := h.entries.SetStarred(r.Context(), id, in.Starred); err != nil {
		h.appErrorResponse(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, "entry updated", envelope{"starred": in.Starred})
}
