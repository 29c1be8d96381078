package tags

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

type tagRequest struct {
	Tag      *string       `json:"tag"`
	Kind     *content.Kind `json:"content_type"`
	ObjectID *string       `json:"object_id"`
}

func (req tagRequest) complete() bool {
	return req.Tag != nil && req.Kind != nil && req.ObjectID != nil
}

func (req tagRequest) apply(t *TaggedItem) {
	if req.Tag != nil {
		t.Tag = *req.Tag
	}
	if req.Kind != nil {
		t.Ref.Kind = *req.Kind
	}
	if req.ObjectID != nil {
		t.Ref.ID = *req.ObjectID
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := h.repo.List(r.Context(), Filter{
		Kind:     content.Kind(q.Get("content_type")),
		ObjectID: q.Get("object_id"),
		Tag:      q.Get("tag"),
	})
	if errors.Is(err, content.ErrInvalidKind) {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_KIND", err.Error())
		return
	}
	if err != nil {
		httputil.WriteInternal(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, items)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req tagRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}
	if !req.complete() {
		httputil.WriteError(w, http.StatusBadRequest, "MISSING_FIELDS", "tag, content_type and object_id are required")
		return
	}
	var t TaggedItem
	req.apply(&t)
	if err := h.repo.Create(r.Context(), &t); err != nil {
		writeRepoError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, t)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	t, err := h.repo.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeRepoError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, t)
}

func (h *Handler) update(partial bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := h.repo.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeRepoError(w, r, err)
			return
		}
		var req tagRequest
		if err := httputil.ReadJSON(r, &req); err != nil {
			httputil.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
			return
		}
		if !partial && !req.complete() {
			httputil.WriteError(w, http.StatusBadRequest, "MISSING_FIELDS", "tag, content_type and object_id are required")
			return
		}
		req.apply(t)
		if err := h.repo.Update(r.Context(), t); err != nil {
			writeRepoError(w, r, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, t)
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
		httputil.WriteError(w, http.StatusNotFound, "NOT_FOUND", "tag not found")
	case errors.Is(err, ErrInvalidTag):
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_TAG", err.Error())
	case errors.Is(err, content.ErrInvalidKind):
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_KIND", err.Error())
	case errors.Is(err, content.ErrDanglingReference):
		httputil.WriteError(w, http.StatusBadRequest, "DANGLING_REFERENCE", err.Error())
	default:
		httputil.WriteInternal(w, r, err)
	}
}
