package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/xavierca1/realty-crm/internal/entity"
	"github.com/xavierca1/realty-crm/internal/usecase"
)

// Service is the use case surface a ResourceHandler drives.
type Service[T, In, P any] interface {
	List(ctx context.Context, p entity.Principal, q usecase.ListQuery) (*usecase.Page[T], error)
	Get(ctx context.Context, p entity.Principal, id string) (*T, error)
	Create(ctx context.Context, p entity.Principal, in In) (*T, error)
	Update(ctx context.Context, p entity.Principal, id string, patch P) (*T, error)
	Delete(ctx context.Context, p entity.Principal, id string) error
}

// ResourceHandler serves list/get/create/update/delete for one collection.
// Single documents are wrapped under the singular key, lists under the plural.
type ResourceHandler[T, In, P any] struct {
	svc      Service[T, In, P]
	singular string
	plural   string
}

func NewResourceHandler[T, In, P any](svc Service[T, In, P], singular, plural string) *ResourceHandler[T, In, P] {
	return &ResourceHandler[T, In, P]{svc: svc, singular: singular, plural: plural}
}

func (h *ResourceHandler[T, In, P]) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

func (h *ResourceHandler[T, In, P]) List(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	q, err := listQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, err := h.svc.List(r.Context(), p, q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		h.plural: page.Items,
		"total":  page.Total,
		"page":   page.Page,
		"pages":  page.Pages,
		"limit":  page.Limit,
	})
}

func (h *ResourceHandler[T, In, P]) Get(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	doc, err := h.svc.Get(r.Context(), p, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{h.singular: doc})
}

func (h *ResourceHandler[T, In, P]) Create(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in In
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	doc, err := h.svc.Create(r.Context(), p, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{h.singular: doc})
}

func (h *ResourceHandler[T, In, P]) Update(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var patch P
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	doc, err := h.svc.Update(r.Context(), p, chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{h.singular: doc})
}

func (h *ResourceHandler[T, In, P]) Delete(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.svc.Delete(r.Context(), p, chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{
		Success: true,
		Message: cases.Title(language.English).String(h.singular) + " deleted successfully",
	})
}

// listQuery reads page and limit and hands every other parameter to the
// use case, which applies only the filters it allows.
func listQuery(r *http.Request) (usecase.ListQuery, error) {
	values := r.URL.Query()
	q := usecase.ListQuery{
		Pager:  usecase.Pager{Page: usecase.DefaultPage, Limit: usecase.DefaultLimit},
		Params: make(map[string]string, len(values)),
	}
	for key := range values {
		v := values.Get(key)
		switch key {
		case "page":
			n, err := strconv.Atoi(v)
			if err != nil {
				return q, entity.Validation("page must be an integer")
			}
			q.Page = n
		case "limit":
			n, err := strconv.Atoi(v)
			if err != nil {
				return q, entity.Validation("limit must be an integer")
			}
			q.Limit = n
		default:
			if v != "" {
				q.Params[key] = v
			}
		}
	}
	return q, nil
}
