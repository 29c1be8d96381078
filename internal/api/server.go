package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/JustinTDCT/flixcatalog/internal/auth"
	"github.com/JustinTDCT/flixcatalog/internal/catalog"
	"github.com/JustinTDCT/flixcatalog/internal/categories"
	"github.com/JustinTDCT/flixcatalog/internal/config"
	"github.com/JustinTDCT/flixcatalog/internal/content"
	"github.com/JustinTDCT/flixcatalog/internal/db"
	"github.com/JustinTDCT/flixcatalog/internal/logging"
	"github.com/JustinTDCT/flixcatalog/internal/playlists"
	"github.com/JustinTDCT/flixcatalog/internal/ratings"
	"github.com/JustinTDCT/flixcatalog/internal/search"
	"github.com/JustinTDCT/flixcatalog/internal/tags"
	"github.com/JustinTDCT/flixcatalog/internal/users"
	"github.com/JustinTDCT/flixcatalog/internal/videos"
)

type Server struct {
	config       *config.Config
	db           *db.DB
	auth         *auth.Service
	userRepo     *users.Repository
	videoRepo    *videos.Repository
	playlistRepo *playlists.Repository
	categoryRepo *categories.Repository
	tagRepo      *tags.Repository
	ratingRepo   *ratings.Repository
	registry     *content.Registry
	router       chi.Router
}

func NewServer(cfg *config.Config, database *db.DB) *Server {
	deriver := content.NewDeriver(content.NewSlugGenerator(cfg.SlugMaxAttempts))

	userRepo := users.NewRepository(database.DB)
	playlistRepo := playlists.NewRepository(database.DB, deriver)
	categoryRepo := categories.NewRepository(database.DB, deriver)
	videoRepo := videos.NewRepository(database.DB, deriver, playlistRepo)

	registry := content.NewRegistry()
	registry.Register(content.KindVideo, videoRepo.Exists)
	registry.Register(content.KindPlaylist, playlistRepo.Exists)
	registry.Register(content.KindCategory, categoryRepo.Exists)
	registry.RegisterAlias(content.KindMovie, content.KindPlaylist, playlistRepo.Movies().Exists)
	registry.RegisterAlias(content.KindShow, content.KindPlaylist, playlistRepo.Shows().Exists)
	registry.RegisterAlias(content.KindSeason, content.KindPlaylist, playlistRepo.Seasons().Exists)

	s := &Server{
		config:       cfg,
		db:           database,
		auth:         auth.NewService(database.DB, userRepo, auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL)),
		userRepo:     userRepo,
		videoRepo:    videoRepo,
		playlistRepo: playlistRepo,
		categoryRepo: categoryRepo,
		tagRepo:      tags.NewRepository(database.DB, registry),
		ratingRepo:   ratings.NewRepository(database.DB, registry),
		registry:     registry,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	mw := auth.NewMiddleware(s.auth)
	limiter := auth.NewRateLimiter(s.config.AuthRateLimit)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if s.config.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(logging.AccessLog())
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders)
	r.Use(cors)

	r.Route("/api", func(r chi.Router) {
		r.Mount("/auth", auth.NewHandler(s.auth, mw, limiter).Router())

		r.Group(func(r chi.Router) {
			r.Use(mw.RequireAuth)
			r.Mount("/videos", videos.NewHandler(s.videoRepo, auth.UserID).Router())
			r.Mount("/playlist", playlists.NewHandler(s.playlistRepo).
				WithRatings(ratings.NewHandler(s.ratingRepo, content.KindPlaylist, auth.UserID).Router()).
				Router())
			r.Mount("/category", categories.NewHandler(s.categoryRepo).Router())
			r.Mount("/tags", tags.NewHandler(s.tagRepo).Router())
			r.Mount("/users", users.NewHandler(s.userRepo, auth.UserID).Router())
			r.Mount("/search", search.NewHandler(s.db.DB).Router())
		})
	})

	r.Mount("/", catalog.NewHandler(s.playlistRepo, s.tagRepo, s.ratingRepo).Router())
	return r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) Auth() *auth.Service {
	return s.auth
}

// securityHeaders adds standard security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("X-XSS-Protection", "0")
		next.ServeHTTP(w, r)
	})
}

// cors answers preflight requests and echoes the caller's origin.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, PATCH, OPTIONS")
			w.Header().Set("Access-Control-Max-Age", "86400")
			w.Header().Set("Vary", "Origin")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
