// Package catalog serves the public, read-only views of published content.
package catalog

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sourcegraph/conc/pool"

	"github.com/JustinTDCT/flixcatalog/internal/content"
	"github.com/JustinTDCT/flixcatalog/internal/httputil"
	"github.com/JustinTDCT/flixcatalog/internal/playlists"
	"github.com/JustinTDCT/flixcatalog/internal/ratings"
	"github.com/JustinTDCT/flixcatalog/internal/tags"
)

//go:embed templates/*.html
var templateFS embed.FS

var funcs = template.FuncMap{
	"link":       link,
	"seasonLink": seasonLink,
	"deref":      func(f *float64) float64 { return *f },
}

var pages = template.Must(template.New("catalog").Funcs(funcs).ParseFS(templateFS, "templates/*.html"))

// link is the catalog URL of a playlist row.
func link(p playlists.Playlist) string {
	switch p.Type {
	case content.TypeMovie:
		return "/movies/" + p.Slug
	case content.TypeShow:
		return "/shows/" + p.Slug
	}
	return "/media/" + p.ID
}

func seasonLink(show *playlists.Playlist, season playlists.Playlist) string {
	return "/shows/" + show.Slug + "/seasons/" + season.Slug
}

type ListPage struct {
	Title string               `json:"title"`
	Items []playlists.Playlist `json:"items"`
}

type DetailPage struct {
	Title    string                    `json:"-"`
	Playlist *playlists.Playlist       `json:"playlist"`
	Display  string                    `json:"display,omitempty"`
	Show     *playlists.Playlist       `json:"show,omitempty"`
	Seasons  []playlists.Playlist      `json:"seasons,omitempty"`
	Videos   []playlists.PlaylistVideo `json:"videos"`
	Tags     []string                  `json:"tags"`
	Rating   *ratings.Summary          `json:"rating"`
}

type Handler struct {
	playlists *playlists.Repository
	tags      *tags.Repository
	ratings   *ratings.Repository
}

func NewHandler(playlistRepo *playlists.Repository, tagRepo *tags.Repository, ratingRepo *ratings.Repository) *Handler {
	return &Handler{playlists: playlistRepo, tags: tagRepo, ratings: ratingRepo}
}

func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.featured)
	r.Get("/playlists", h.list("Playlist", h.playlists.Published))
	r.Get("/media/{id}", h.media)
	r.Get("/movies", h.list("Movies", h.playlists.Movies().Published))
	r.Get("/movies/{slug}", h.movie)
	r.Get("/shows", h.list("TV Show", h.playlists.Shows().Published))
	r.Get("/shows/{slug}", h.show)
	r.Get("/shows/{slug}/seasons", h.showSeasons)
	r.Get("/shows/{showSlug}/seasons/{seasonSlug}", h.season)
	return r
}

func (h *Handler) featured(w http.ResponseWriter, r *http.Request) {
	h.list("Featured", h.playlists.FeaturedPlaylists)(w, r)
}

func (h *Handler) list(title string, load func(context.Context) ([]playlists.Playlist, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := load(r.Context())
		if err != nil {
			render(w, r, nil, err)
			return
		}
		render(w, r, &page{name: "list.html", data: ListPage{Title: title, Items: items}}, nil)
	}
}

func (h *Handler) media(w http.ResponseWriter, r *http.Request) {
	p, err := h.publishedByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		render(w, r, nil, err)
		return
	}
	h.detail(w, r, p)
}

func (h *Handler) movie(w http.ResponseWriter, r *http.Request) {
	p, err := h.playlists.Movies().GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		render(w, r, nil, err)
		return
	}
	h.detail(w, r, p)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	p, err := h.playlists.Shows().GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		render(w, r, nil, err)
		return
	}
	h.detail(w, r, p,
		func(ctx context.Context, d *DetailPage) error {
			seasons, err := h.playlists.ShowSeasons(ctx, p.ID)
			d.Seasons = seasons
			return err
		},
		func(ctx context.Context, d *DetailPage) error {
			display, err := h.playlists.ShortDisplay(ctx, p)
			d.Display = display
			return err
		},
	)
}

func (h *Handler) showSeasons(w http.ResponseWriter, r *http.Request) {
	p, err := h.playlists.Shows().GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		render(w, r, nil, err)
		return
	}
	seasons, err := h.playlists.ShowSeasons(r.Context(), p.ID)
	if err != nil {
		render(w, r, nil, err)
		return
	}
	render(w, r, &page{name: "list.html", data: ListPage{Title: p.Title + " seasons", Items: seasons}}, nil)
}

func (h *Handler) season(w http.ResponseWriter, r *http.Request) {
	p, err := h.playlists.SeasonBySlugs(r.Context(), chi.URLParam(r, "showSlug"), chi.URLParam(r, "seasonSlug"))
	if err != nil {
		render(w, r, nil, err)
		return
	}
	h.detail(w, r, p, func(ctx context.Context, d *DetailPage) error {
		show, err := h.playlists.Get(ctx, *p.ParentID)
		if err != nil {
			return err
		}
		d.Show = show
		return nil
	})
}

func (h *Handler) publishedByID(ctx context.Context, id string) (*playlists.Playlist, error) {
	p, err := h.playlists.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsPublished(content.Now()) {
		return nil, playlists.ErrNotFound
	}
	return p, nil
}

// detail loads the parts of a detail page concurrently. Each extra loader
// fills a kind-specific part of the page.
func (h *Handler) detail(w http.ResponseWriter, r *http.Request, p *playlists.Playlist, extra ...func(context.Context, *DetailPage) error) {
	d := &DetailPage{Title: p.Title, Playlist: p}

	tasks := pool.New().WithContext(r.Context()).WithCancelOnError()
	tasks.Go(func(ctx context.Context) error {
		videos, err := h.playlists.PublishedVideos(ctx, p.ID)
		d.Videos = videos
		return err
	})
	tasks.Go(func(ctx context.Context) error {
		names, err := h.tags.ForObject(ctx, p.Ref())
		d.Tags = names
		return err
	})
	tasks.Go(func(ctx context.Context) error {
		summary, err := h.ratings.Summarize(ctx, p.Ref())
		d.Rating = summary
		return err
	})
	for _, load := range extra {
		tasks.Go(func(ctx context.Context) error { return load(ctx, d) })
	}
	if err := tasks.Wait(); err != nil {
		render(w, r, nil, err)
		return
	}
	render(w, r, &page{name: "detail.html", data: d}, nil)
}

type page struct {
	name string
	data any
}

// render writes pg as JSON or HTML depending on the Accept header, or the
// error response for err.
func render(w http.ResponseWriter, r *http.Request, pg *page, err error) {
	asJSON := httputil.WantsJSON(r)
	switch {
	case errors.Is(err, playlists.ErrNotFound):
		if asJSON {
			httputil.WriteError(w, http.StatusNotFound, "NOT_FOUND", "not found")
			return
		}
		http.NotFound(w, r)
		return
	case err != nil:
		httputil.WriteInternal(w, r, err)
		return
	}

	if asJSON {
		httputil.WriteJSON(w, http.StatusOK, pg.data)
		return
	}
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, pg.name, pg.data); err != nil {
		httputil.WriteInternal(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}
