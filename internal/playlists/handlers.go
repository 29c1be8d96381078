package playlists

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JustinTDCT/flixcatalog/internal/content"
	"github.com/JustinTDCT/flixcatalog/internal/httputil"
)

type Handler struct {
	repo    *Repository
	ratings http.Handler
}

func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// WithRatings serves ratings of a single playlist below /{id}/ratings.
func (h *Handler) WithRatings(ratings http.Handler) *Handler {
	h.ratings = ratings
	return h
}

func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update(false))
	r.Patch("/{id}", h.update(true))
	r.Delete("/{id}", h.delete)
	r.Get("/{id}/videos", h.videos)
	r.Put("/{id}/videos", h.setVideos)
	if h.ratings != nil {
		r.Mount("/{id}/ratings", h.ratings)
	}
	return r
}

type playlistRequest struct {
	Title       *string               `json:"title"`
	Description *string               `json:"description"`
	Slug        *string               `json:"slug"`
	Type        *content.PlaylistType `json:"type"`
	Parent      *string               `json:"parent"`
	Category    *string               `json:"category"`
	Video       *string               `json:"video"`
	Order       *int                  `json:"order"`
	Active      *bool                 `json:"active"`
	State       *content.PublishState `json:"state"`
}

// optional maps an empty string to a cleared reference.
func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func (req playlistRequest) apply(p *Playlist) {
	if req.Title != nil {
		p.Title = *req.Title
	}
	if req.Description != nil {
		p.Description = optional(*req.Description)
	}
	if req.Slug != nil {
		p.Slug = content.Slugify(*req.Slug)
	}
	if req.Type != nil {
		p.Type = *req.Type
	}
	if req.Parent != nil {
		p.ParentID = optional(*req.Parent)
	}
	if req.Category != nil {
		p.CategoryID = optional(*req.Category)
	}
	if req.Video != nil {
		p.VideoID = optional(*req.Video)
	}
	if req.Order != nil {
		p.Order = *req.Order
	}
	if req.Active != nil {
		p.Active = *req.Active
	}
	if req.State != nil {
		p.State = *req.State
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := Filter{
		Type:       content.PlaylistType(q.Get("type")),
		ParentID:   q.Get("parent"),
		CategoryID: q.Get("category"),
	}
	if f.Type != "" && !f.Type.Valid() {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_TYPE", content.ErrInvalidType.Error())
		return
	}
	if q.Get("published") == "true" {
		f.PublishedAsOf = h.repo.deriver.Now()
	}
	items, err := h.repo.Find(r.Context(), f, orderNewest)
	if err != nil {
		httputil.WriteInternal(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, items)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req playlistRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}
	p := &Playlist{Active: true, Order: 1}
	req.apply(p)
	if err := h.repo.Create(r.Context(), p); err != nil {
		writeRepoError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, p)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	p, err := h.repo.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeRepoError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) update(partial bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := h.repo.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeRepoError(w, r, err)
			return
		}
		var req playlistRequest
		if err := httputil.ReadJSON(r, &req); err != nil {
			httputil.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
			return
		}
		if !partial && req.Title == nil {
			httputil.WriteError(w, http.StatusBadRequest, "MISSING_FIELDS", "title is required")
			return
		}
		req.apply(p)
		if err := h.repo.Update(r.Context(), p); err != nil {
			writeRepoError(w, r, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, p)
	}
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeRepoError(w, r, err)
		return
	}
	httputil.WriteNoContent(w)
}

func (h *Handler) videos(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.repo.Get(r.Context(), id); err != nil {
		writeRepoError(w, r, err)
		return
	}
	items, err := h.repo.Videos(r.Context(), id)
	if err != nil {
		httputil.WriteInternal(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, items)
}

func (h *Handler) setVideos(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Videos []string `json:"videos"`
	}
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.repo.SetVideos(r.Context(), id, req.Videos); err != nil {
		writeRepoError(w, r, err)
		return
	}
	h.videos(w, r)
}

func writeRepoError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httputil.WriteError(w, http.StatusNotFound, "NOT_FOUND", "playlist not found")
	case errors.Is(err, ErrTitleRequired):
		httputil.WriteError(w, http.StatusBadRequest, "MISSING_FIELDS", err.Error())
	case errors.Is(err, content.ErrInvalidType):
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_TYPE", err.Error())
	case errors.Is(err, content.ErrInvalidState):
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_STATE", err.Error())
	case errors.Is(err, ErrInvalidReference), errors.Is(err, ErrSelfParent), errors.Is(err, ErrUnknownVideo):
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_REFERENCE", err.Error())
	case errors.Is(err, content.ErrSlugExhausted):
		httputil.WriteError(w, http.StatusConflict, "SLUG_EXHAUSTED", err.Error())
	default:
		httputil.WriteInternal(w, r, err)
	}
}
