package ratings

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JustinTDCT/flixcatalog/internal/content"
	"github.com/JustinTDCT/flixcatalog/internal/httputil"
)

// Handler serves the ratings of one entity kind. It is mounted below the
// entity's own route and reads the entity id from the "id" URL parameter.
type Handler struct {
	repo        *Repository
	kind        content.Kind
	currentUser func(context.Context) string
}

func NewHandler(repo *Repository, kind content.Kind, currentUser func(context.Context) string) *Handler {
	return &Handler{repo: repo, kind: kind, currentUser: currentUser}
}

func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.summary)
	r.Post("/", h.rate)
	return r
}

func (h *Handler) ref(r *http.Request) content.Ref {
	return content.Ref{Kind: h.kind, ID: chi.URLParam(r, "id")}
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	ref, err := h.repo.registry.Resolve(r.Context(), h.ref(r))
	if err != nil {
		writeRepoError(w, r, err)
		return
	}
	s, err := h.repo.Summarize(r.Context(), ref)
	if err != nil {
		httputil.WriteInternal(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, s)
}

func (h *Handler) rate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Value *int `json:"value"`
	}
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}
	rt := &Rating{UserID: h.currentUser(r.Context()), Value: req.Value, Ref: h.ref(r)}
	if err := h.repo.Create(r.Context(), rt); err != nil {
		writeRepoError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, rt)
}

func writeRepoError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrInvalidRating):
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_RATING", err.Error())
	case errors.Is(err, content.ErrDanglingReference):
		httputil.WriteError(w, http.StatusNotFound, "NOT_FOUND", "object not found")
	case errors.Is(err, content.ErrInvalidKind):
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_KIND", err.Error())
	default:
		httputil.WriteInternal(w, r, err)
	}
}
