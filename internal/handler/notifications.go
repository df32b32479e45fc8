package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ivyforms/ivyforms/internal/model"
)

type notificationStore interface {
	ListByForm(ctx context.Context, formID int64) ([]model.Notification, error)
	Get(ctx context.Context, id int64) (*model.Notification, error)
	Create(ctx context.Context, n *model.Notification) error
	Update(ctx context.Context, n *model.Notification) error
	Delete(ctx context.Context, id int64) error
}

type formGetter interface {
	Get(ctx context.Context, id int64) (*model.Form, error)
}

type NotificationHandler struct {
	BaseHandler
	forms         formGetter
	notifications notificationStore
}

func NewNotificationHandler(logger *slog.Logger, forms formGetter, notifications notificationStore) *NotificationHandler {
	return &NotificationHandler{BaseHandler: BaseHandler{Logger: logger}, forms: forms, notifications: notifications}
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	formID, err := idParam(r, "id")
	if err != nil {
		h.appErrorResponse(w, r, err)
		return
	}
	if _, err := h.forms.Get(r.Context(), formID); err != nil {
		h.appErrorResponse(w, r, err)
		return
	}
	list, err := h.notifications.ListByForm(r.Context(), formID)
	if err != nil {
		h.appErrorResponse(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, "ok", list)
}

func (h *NotificationHandler) Create(w http.ResponseWriter, r *http.Request) {
	formID, err := idParam(r, "id")
	if err != nil {
		h.appErrorResponse(w, r, err)
		return
	}
	var n model.Notification
	if err := h.readJSON(w, r, &n); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	if _, err := h.forms.Get(r.Context(), formID); err != nil {
		h.appErrorResponse(w, r, err)
		return
	}
	n.FormID = formID
	if err := h.notifications.Create(r.Context(), &n); err != nil {
		h.appErrorResponse(w, r, err)
		return
	}
	h.respond(w, r, http.StatusCreated, "notification created", n)
}

func (h *NotificationHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "nid")
	if err != nil {
		h.appErrorResponse(w, r, err)
		return
	}
	cur, err := h.notifications.Get(r.Context(), id)
	if err != nil {
		h.appErrorResponse(w, r, err)
		return
	}
	var n model.Notification
	if err := h.readJSON(w, r, &n); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	n.ID, n.FormID = cur.ID, cur.FormID
	if err := h.notifications.Update(r.Context(), &n); err != nil {
		h.appErrorResponse(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, "notification updated", n)
}

func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "nid")
	if err != nil {
		h.appErrorResponse(w, r, err)
		return
	}
	if err := h.notifications.Delete(r.Context(), id); err != nil {
		h.appErrorResponse(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, "notification deleted", nil)
}
