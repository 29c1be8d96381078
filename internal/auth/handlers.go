package auth

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JustinTDCT/flixcatalog/internal/httputil"
	"github.com/JustinTDCT/flixcatalog/internal/users"
)

type Handler struct {
	svc     *Service
	mw      *Middleware
	limiter *RateLimiter
}

func NewHandler(svc *Service, mw *Middleware, limiter *RateLimiter) *Handler {
	return &Handler{svc: svc, mw: mw, limiter: limiter}
}

func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(h.limiter.Middleware)
		r.Post("/register", h.register)
		r.Post("/login", h.login)
	})
	r.With(h.mw.RequireAuth).Post("/logout", h.logout)
	return r
}

type tokenResponse struct {
	User  *users.User `json:"user"`
	Token string      `json:"token"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}

	u, token, err := h.svc.Register(r.Context(), req.Email, req.Name, req.Password)
	switch {
	case errors.Is(err, users.ErrEmailRequired):
		httputil.WriteError(w, http.StatusBadRequest, "MISSING_FIELDS", err.Error())
		return
	case errors.Is(err, ErrWeakPassword):
		httputil.WriteError(w, http.StatusBadRequest, "WEAK_PASSWORD", err.Error())
		return
	case errors.Is(err, users.ErrEmailTaken):
		httputil.WriteError(w, http.StatusConflict, "EMAIL_EXISTS", "email already registered")
		return
	case err != nil:
		httputil.WriteInternal(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, tokenResponse{User: u, Token: token})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}

	u, token, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if errors.Is(err, ErrInvalidCredentials) {
		httputil.WriteError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid email or password")
		return
	}
	if err != nil {
		httputil.WriteInternal(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, tokenResponse{User: u, Token: token})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Logout(r.Context(), extractToken(r)); err != nil {
		httputil.WriteInternal(w, r, err)
		return
	}
	httputil.WriteNoContent(w)
}
