package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ivyforms/ivyforms/internal/model"
)

type confirmationStore interface {
	ListByForm(ctx context.Context, formID int64) ([]model.Confirmation, error)
	Get(ctx context.Context, id int64) (*model.Confirmation, error)
	Create(ctx context.Context, c *model.Confirmation) error
	Update(ctx context.Context, c *model.Confirmation) error
	Delete(ctx context.Context, id int64) error
}

type ConfirmationHandler struct {
	BaseHandler
	forms         formGetter
	confirmations confirmationStore
}

func NewConfirmationHandler(logger *slog.Logger, forms formGetter, confirmations confirmationStore) *ConfirmationHandler {
	return &ConfirmationHandler{BaseHandler: BaseHandler{Logger: logger}, forms: forms, confirmations: confirmations}
}

func (h *ConfirmationHandler) List(w http.ResponseWriter, r *http.Request) {
	formID, err := idParam(r, "id")
	if err != nil {
		h.appErrorResponse(w, r, err)
		return
	}
	if _, err := h.forms.Get(r.Context(), formID); err != nil {
		h.appErrorResponse(w, r, err)
		return
	}
	list, err := h.confirmations.ListByForm(r.Context(), formID)
	if err != nil {
		h.appErrorResponse(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, "ok", list)
}

func (h *ConfirmationHandler) Create(w http.ResponseWriter, r *http.Request) {
	formID, err := idParam(r, "id")
	if err != nil {
		h.appErrorResponse(w, r, err)
		return
	}
	var c model.Confirmation
	if err := h.readJSON(w, r, &c); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	if _, err := h.forms.Get(r.Context(), formID); err != nil {
		h.appErrorResponse(w, r, err)
		return
	}
	c.FormID = formID
	if err := h.confirmations.Create(r.Context(), &c); err != nil {
		h.appErrorResponse(w, r, err)
		return
	}
	h.respond(w, r, http.StatusCreated, "confirmation created", c)
}

func (h *ConfirmationHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "cid")
	if err != nil {
		h.appErrorResponse(w, r, err)
		return
	}
	cur, err := h.confirmations.Get(r.Context(), id)
	if err != nil {
		h.appErrorResponse(w, r, err)
		return
	}
	var c model.Confirmation
	if err := h.readJSON(w, r, &c); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	c.ID, c.FormID = cur.ID, cur.FormID
	if err := h.confirmations.Update(r.Context(), &c); err != nil {
		h.appErrorResponse(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, "confirmation updated", c)
}

func (h *ConfirmationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "cid")
	if err != nil {
		h.appErrorResponse(w, r, err)
		return
	}
	if err := h.confirmations.Delete(r.Context(), id); err != nil {
		h.appErrorResponse(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, "confirmation deleted", nil)
}
