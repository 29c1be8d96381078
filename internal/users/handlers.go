package users

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JustinTDCT/flixcatalog/internal/httputil"
)

type Handler struct {
	repo *Repository
	// currentUser returns the authenticated user id placed in the context
	// by the auth middleware.
	currentUser func(context.Context) string
}

func NewHandler(repo *Repository, currentUser func(context.Context) string) *Handler {
	return &Handler{repo: repo, currentUser: currentUser}
}

func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Get("/me", h.me)
	return r
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	id := h.currentUser(r.Context())
	if id == "" {
		httputil.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "not authenticated")
		return
	}
	user, err := h.repo.GetByID(r.Context(), id)
	if errors.Is(err, ErrNotFound) {
		httputil.WriteError(w, http.StatusNotFound, "NOT_FOUND", "user not found")
		return
	}
	if err != nil {
		httputil.WriteInternal(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}
