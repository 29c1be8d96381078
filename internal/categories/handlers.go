package categories

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JustinTDCT/flixcatalog/internal/content"
	"github.com/JustinTDCT/flixcatalog/internal/httputil"
)

type Handler struct {
	repo *Repository
}

func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update(false))
	r.Patch("/{id}", h.update(true))
	r.Delete("/{id}", h.delete)
	return r
}

type categoryRequest struct {
	Title  *string `json:"title"`
	Slug   *string `json:"slug"`
	Active *bool   `json:"active"`
}

func (req categoryRequest) apply(c *Category) {
	if req.Title != nil {
		c.Title = *req.Title
	}
	if req.Slug != nil {
		c.Slug = content.Slugify(*req.Slug)
	}
	if req.Active != nil {
		c.Active = *req.Active
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.repo.List(r.Context(), r.URL.Query().Get("active") == "true")
	if err != nil {
		httputil.WriteInternal(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, items)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}
	c := &Category{Active: true}
	req.apply(c)
	if err := h.repo.Create(r.Context(), c); err != nil {
		writeRepoError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, c)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	c, err := h.repo.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeRepoError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) update(partial bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := h.repo.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeRepoError(w, r, err)
			return
		}
		var req categoryRequest
		if err := httputil.ReadJSON(r, &req); err != nil {
			httputil.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
			return
		}
		if !partial && req.Title == nil {
			httputil.WriteError(w, http.StatusBadRequest, "MISSING_FIELDS", "title is required")
			return
		}
		req.apply(c)
		if err := h.repo.Update(r.Context(), c); err != nil {
			writeRepoError(w, r, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, c)
	}
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeRepoError(w, r, err)
		return
	}
	httputil.WriteNoContent(w)
}

func writeRepoError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httputil.WriteError(w, http.StatusNotFound, "NOT_FOUND", "category not found")
	case errors.Is(err, ErrTitleRequired):
		httputil.WriteError(w, http.StatusBadRequest, "MISSING_FIELDS", err.Error())
	case errors.Is(err, content.ErrSlugExhausted):
		httputil.WriteError(w, http.StatusConflict, "SLUG_EXHAUSTED", err.Error())
	default:
		httputil.WriteInternal(w, r, err)
	}
}
