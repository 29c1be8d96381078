package playlists

import (
	"context"
	"fmt"

	"github.com/JustinTDCT/flixcatalog/internal/content"
)

// Projection is a typed view over the playlists table. Writes force the
// discriminator; reads apply the kind's fixed predicate.
type Projection struct {
	repo   *Repository
	kind   content.PlaylistType
	parent parentRule
}

// Movies are top-level MOV rows.
func (r *Repository) Movies() *Projection {
	return &Projection{repo: r, kind: content.TypeMovie, parent: parentNone}
}

// Shows are top-level TVS rows.
func (r *Repository) Shows() *Projection {
	return &Projection{repo: r, kind: content.TypeShow, parent: parentNone}
}

// Seasons are SEA rows that have a parent.
func (r *Repository) Seasons() *Projection {
	return &Projection{repo: r, kind: content.TypeSeason, parent: parentRequired}
}

// Collections are freestanding PLY rows at any depth.
func (r *Repository) Collections() *Projection {
	return &Projection{repo: r, kind: content.TypePlaylist, parent: parentAny}
}

func (p *Projection) Kind() content.PlaylistType {
	return p.kind
}

func (p *Projection) filter() Filter {
	return Filter{Type: p.kind, parent: p.parent}
}

// Create stores pl as this projection's kind, whatever type it carried.
func (p *Projection) Create(ctx context.Context, pl *Playlist) error {
	pl.Type = p.kind
	return p.repo.Create(ctx, pl)
}

func (p *Projection) All(ctx context.Context) ([]Playlist, error) {
	return p.repo.Find(ctx, p.filter(), orderDisplay)
}

func (p *Projection) Published(ctx context.Context) ([]Playlist, error) {
	f := p.filter()
	f.PublishedAsOf = p.repo.deriver.Now()
	return p.repo.Find(ctx, f, orderDisplay)
}

func (p *Projection) Get(ctx context.Context, id string) (*Playlist, error) {
	ok, err := p.Exists(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	return p.repo.Get(ctx, id)
}

func (p *Projection) Exists(ctx context.Context, id string) (bool, error) {
	return p.repo.exists(ctx, p.filter(), id)
}

// GetBySlug returns the first published row of this kind whose slug
// matches case-insensitively.
func (p *Projection) GetBySlug(ctx context.Context, slug string) (*Playlist, error) {
	f := p.filter()
	f.Slug = slug
	f.PublishedAsOf = p.repo.deriver.Now()
	return p.repo.first(ctx, f)
}

func (r *Repository) first(ctx context.Context, f Filter) (*Playlist, error) {
	found, err := r.Find(ctx, f, orderDisplay)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, ErrNotFound
	}
	return &found[0], nil
}

// SeasonBySlugs finds a published season by its show's slug and its own.
// Duplicate pairs resolve to the first published match.
func (r *Repository) SeasonBySlugs(ctx context.Context, showSlug, seasonSlug string) (*Playlist, error) {
	f := r.Seasons().filter()
	f.ParentSlug = showSlug
	f.Slug = seasonSlug
	f.PublishedAsOf = r.deriver.Now()
	return r.first(ctx, f)
}

// ShowSeasons returns the published children of a show in display order.
func (r *Repository) ShowSeasons(ctx context.Context, showID string) ([]Playlist, error) {
	return r.Find(ctx, Filter{ParentID: showID, PublishedAsOf: r.deriver.Now()}, orderDisplay)
}

// ShortDisplay renders a show as "<title> (N seasons)", counting published
// seasons only.
func (r *Repository) ShortDisplay(ctx context.Context, show *Playlist) (string, error) {
	seasons, err := r.ShowSeasons(ctx, show.ID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s (%d seasons)", show.Title, len(seasons)), nil
}
