package videos

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JustinTDCT/flixcatalog/internal/content"
	"github.com/JustinTDCT/flixcatalog/internal/httputil"
	"github.com/JustinTDCT/flixcatalog/internal/playlists"
)

// Handler serves the requesting user's own videos. Videos of other users
// are reported as missing.
type Handler struct {
	repo        *Repository
	currentUser func(context.Context) string
}

func NewHandler(repo *Repository, currentUser func(context.Context) string) *Handler {
	return &Handler{repo: repo, currentUser: currentUser}
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

type playlistInput struct {
	Title string `json:"title"`
}

// videoRequest has no owner field; a client-sent "user" is dropped by the
// decoder.
type videoRequest struct {
	Title       *string               `json:"title"`
	Description *string               `json:"description"`
	Slug        *string               `json:"slug"`
	VideoID     *string               `json:"video_id"`
	Active      *bool                 `json:"active"`
	State       *content.PublishState `json:"state"`
	Playlists   *[]playlistInput      `json:"playlists"`
}

func (req videoRequest) apply(v *Video) {
	if req.Title != nil {
		v.Title = *req.Title
	}
	if req.Description != nil {
		if *req.Description == "" {
			v.Description = nil
		} else {
			d := *req.Description
			v.Description = &d
		}
	}
	if req.Slug != nil {
		v.Slug = content.Slugify(*req.Slug)
	}
	if req.VideoID != nil {
		v.VideoID = *req.VideoID
	}
	if req.Active != nil {
		v.Active = *req.Active
	}
	if req.State != nil {
		v.State = *req.State
	}
}

func (req videoRequest) memberships() *Memberships {
	if req.Playlists == nil {
		return nil
	}
	m := &Memberships{Titles: make([]string, 0, len(*req.Playlists))}
	for _, p := range *req.Playlists {
		m.Titles = append(m.Titles, p.Title)
	}
	return m
}

type videoResponse struct {
	*Video
	Playlists  []PlaylistSummary `json:"playlists"`
	FeaturedIn []string          `json:"featured_in"`
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, status int, v *Video) {
	lists, err := h.repo.Playlists(r.Context(), v.ID)
	if err != nil {
		httputil.WriteInternal(w, r, err)
		return
	}
	featured, err := h.repo.FeaturedIn(r.Context(), v.ID)
	if err != nil {
		httputil.WriteInternal(w, r, err)
		return
	}
	httputil.WriteJSON(w, status, videoResponse{Video: v, Playlists: lists, FeaturedIn: featured})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.repo.ListByOwner(r.Context(), h.currentUser(r.Context()))
	if err != nil {
		httputil.WriteInternal(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, items)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req videoRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}
	v := &Video{UserID: h.currentUser(r.Context()), Active: true}
	req.apply(v)
	if err := h.repo.Create(r.Context(), v, req.memberships()); err != nil {
		writeRepoError(w, r, err)
		return
	}
	h.respond(w, r, http.StatusCreated, v)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	v, err := h.repo.GetForOwner(r.Context(), chi.URLParam(r, "id"), h.currentUser(r.Context()))
	if err != nil {
		writeRepoError(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, v)
}

func (h *Handler) update(partial bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := h.repo.GetForOwner(r.Context(), chi.URLParam(r, "id"), h.currentUser(r.Context()))
		if err != nil {
			writeRepoError(w, r, err)
			return
		}
		var req videoRequest
		if err := httputil.ReadJSON(r, &req); err != nil {
			httputil.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
			return
		}
		if !partial && (req.Title == nil || req.VideoID == nil) {
			httputil.WriteError(w, http.StatusBadRequest, "MISSING_FIELDS", "title and video_id are required")
			return
		}
		req.apply(v)
		if err := h.repo.Update(r.Context(), v, req.memberships()); err != nil {
			writeRepoError(w, r, err)
			return
		}
		h.respond(w, r, http.StatusOK, v)
	}
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.DeleteForOwner(r.Context(), chi.URLParam(r, "id"), h.currentUser(r.Context())); err != nil {
		writeRepoError(w, r, err)
		return
	}
	httputil.WriteNoContent(w)
}

func writeRepoError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httputil.WriteError(w, http.StatusNotFound, "NOT_FOUND", "video not found")
	case errors.Is(err, ErrTitleRequired), errors.Is(err, ErrVideoIDRequired),
		errors.Is(err, playlists.ErrTitleRequired):
		httputil.WriteError(w, http.StatusBadRequest, "MISSING_FIELDS", err.Error())
	case errors.Is(err, ErrDuplicateVideoID):
		httputil.WriteError(w, http.StatusBadRequest, "DUPLICATE_VIDEO_ID", err.Error())
	case errors.Is(err, content.ErrInvalidState):
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_STATE", err.Error())
	case errors.Is(err, content.ErrSlugExhausted):
		httputil.WriteError(w, http.StatusConflict, "SLUG_EXHAUSTED", err.Error())
	default:
		httputil.WriteInternal(w, r, err)
	}
}
