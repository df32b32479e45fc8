package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ivyforms/ivyforms/internal/model"
)

type pageStore interface {
	List(ctx context.Context) ([]model.Page, error)
	Create(ctx context.Context, p *model.Page) error
}

type PageHandler struct {
	BaseHandler
	pages pageStore
}

func NewPageHandler(logger *slog.Logger, pages pageStore) *PageHandler {
	return &PageHandler{BaseHandler: BaseHandler{Logger: logger}, pages: pages}
}

func (h *PageHandler) List(w http.ResponseWriter, r *http.Request) {
	pages, err := h.pages.List(r.Context())
	if err != nil {
		h.appErrorResponse(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, "ok", pages)
}

func (h *PageHandler) Create(w http.ResponseWriter, r *http.Request) {
	var p model.Page
	if err := h.readJSON(w, r, &p); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	if err := h.pages.Create(r.Context(), &p); err != nil {
		h.appErrorResponse(w, r, err)
		return
	}
	h.respond(w, r, http.StatusCreated, "page created", p)
}
