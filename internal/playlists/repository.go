package playlists

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/JustinTDCT/flixcatalog/internal/content"
	"github.com/JustinTDCT/flixcatalog/internal/db"
	"github.com/JustinTDCT/flixcatalog/internal/ratings"
	"github.com/JustinTDCT/flixcatalog/internal/tags"
)

const playlistColumns = `id, parent_id, category_id, type, sort_order, title, description, slug,
	video_id, active, state, published_timestamp, created_at, updated_at`

type Repository struct {
	db      *sql.DB
	deriver *content.Deriver
}

func NewRepository(db *sql.DB, deriver *content.Deriver) *Repository {
	return &Repository{db: db, deriver: deriver}
}

func (r *Repository) validate(p *Playlist) error {
	p.Title = strings.TrimSpace(p.Title)
	if p.Title == "" {
		return ErrTitleRequired
	}
	if p.Type == "" {
		p.Type = content.TypePlaylist
	}
	if !p.Type.Valid() {
		return content.ErrInvalidType
	}
	if p.State != "" && !p.State.Valid() {
		return content.ErrInvalidState
	}
	if p.ParentID != nil && *p.ParentID == p.ID && p.ID != "" {
		return ErrSelfParent
	}
	return nil
}

// derive fills the slug, unique among siblings, then the publish timestamp.
func (r *Repository) derive(ctx context.Context, q db.Querier, p *Playlist) error {
	return r.deriver.Apply(ctx, content.Record{
		Title:      p.Title,
		Slug:       &p.Slug,
		Publishing: &p.Publishing,
		Exists: func(ctx context.Context, slug string) (bool, error) {
			return r.slugTaken(ctx, q, p, slug)
		},
	})
}

// slugTaken reports whether a sibling of p already uses slug.
func (r *Repository) slugTaken(ctx context.Context, q db.Querier, p *Playlist, slug string) (bool, error) {
	var w db.Where
	w.Add("slug = ?", slug).Add("id <> ?", p.ID)
	if p.ParentID == nil {
		w.Add("parent_id IS NULL")
	} else {
		w.Add("parent_id = ?", *p.ParentID)
	}
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM playlists`+w.SQL()+` LIMIT 1`, w.Args()...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// rescope clears p's slug when p moves to a parent where a sibling already
// uses it, so derive picks a fresh one.
func (r *Repository) rescope(ctx context.Context, p *Playlist) error {
	if p.Slug == "" {
		return nil
	}
	var stored sql.NullString
	err := r.db.QueryRowContext(ctx, "SELECT parent_id FROM playlists WHERE id=$1", p.ID).Scan(&stored)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("load playlist parent: %w", err)
	}
	moved := stored.Valid != (p.ParentID != nil) || (p.ParentID != nil && stored.String != *p.ParentID)
	if !moved {
		return nil
	}
	taken, err := r.slugTaken(ctx, r.db, p, p.Slug)
	if err != nil {
		return err
	}
	if taken {
		p.Slug = ""
	}
	return nil
}

func (r *Repository) Create(ctx context.Context, p *Playlist) error {
	return r.create(ctx, r.db, p)
}

func (r *Repository) create(ctx context.Context, q db.Querier, p *Playlist) error {
	if err := r.validate(p); err != nil {
		return err
	}
	if err := r.derive(ctx, q, p); err != nil {
		return err
	}
	now := r.deriver.Now()
	p.ID = uuid.NewString()
	p.CreatedAt, p.UpdatedAt = now, now

	_, err := q.ExecContext(ctx, `
		INSERT INTO playlists (id, parent_id, category_id, type, sort_order, title, description, slug,
		                       video_id, active, state, published_timestamp, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		p.ID, p.ParentID, p.CategoryID, p.Type, p.Order, p.Title, p.Description, p.Slug,
		p.VideoID, p.Active, p.State, p.PublishedAt, p.CreatedAt, p.UpdatedAt)
	if db.IsForeignKeyViolation(err) {
		return ErrInvalidReference
	}
	if err != nil {
		return fmt.Errorf("insert playlist: %w", err)
	}
	return nil
}

func (r *Repository) Update(ctx context.Context, p *Playlist) error {
	if err := r.validate(p); err != nil {
		return err
	}
	if err := r.rescope(ctx, p); err != nil {
		return err
	}
	if err := r.derive(ctx, r.db, p); err != nil {
		return err
	}
	p.UpdatedAt = r.deriver.Now()

	res, err := r.db.ExecContext(ctx, `
		UPDATE playlists
		SET parent_id=$1, category_id=$2, type=$3, sort_order=$4, title=$5, description=$6, slug=$7,
		    video_id=$8, active=$9, state=$10, published_timestamp=$11, updated_at=$12
		WHERE id=$13`,
		p.ParentID, p.CategoryID, p.Type, p.Order, p.Title, p.Description, p.Slug,
		p.VideoID, p.Active, p.State, p.PublishedAt, p.UpdatedAt, p.ID)
	if db.IsForeignKeyViolation(err) {
		return ErrInvalidReference
	}
	if err != nil {
		return fmt.Errorf("update playlist: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, id string) (*Playlist, error) {
	p, err := scanPlaylist(r.db.QueryRowContext(ctx, `SELECT `+playlistColumns+` FROM playlists WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get playlist: %w", err)
	}
	return p, nil
}

func (r *Repository) Exists(ctx context.Context, id string) (bool, error) {
	return r.exists(ctx, Filter{}, id)
}

func (r *Repository) exists(ctx context.Context, f Filter, id string) (bool, error) {
	w := f.where()
	w.Add("id = ?", id)
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM playlists`+w.SQL(), w.Args()...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// All lists playlists of every kind, newest first.
func (r *Repository) All(ctx context.Context) ([]Playlist, error) {
	return r.Find(ctx, Filter{}, orderNewest)
}

// Published lists playlists of every kind visible now, in display order.
func (r *Repository) Published(ctx context.Context) ([]Playlist, error) {
	return r.Find(ctx, Filter{PublishedAsOf: r.deriver.Now()}, orderDisplay)
}

// FeaturedPlaylists lists the published freestanding playlists.
func (r *Repository) FeaturedPlaylists(ctx context.Context) ([]Playlist, error) {
	return r.Find(ctx, Filter{Type: content.TypePlaylist, PublishedAsOf: r.deriver.Now()}, orderDisplay)
}

const (
	orderNewest  = "created_at DESC, id"
	orderDisplay = "sort_order, created_at, id"
)

func (f Filter) where() *db.Where {
	w := &db.Where{}
	if f.Type != "" {
		w.Add("type = ?", f.Type)
	}
	switch f.parent {
	case parentNone:
		w.Add("parent_id IS NULL")
	case parentRequired:
		w.Add("parent_id IS NOT NULL")
	}
	if f.ParentID != "" {
		w.Add("parent_id = ?", f.ParentID)
	}
	if f.ParentSlug != "" {
		w.Add("parent_id IN (SELECT id FROM playlists WHERE LOWER(slug) = LOWER(?))", f.ParentSlug)
	}
	if f.CategoryID != "" {
		w.Add("category_id = ?", f.CategoryID)
	}
	if f.Slug != "" {
		w.Add("LOWER(slug) = LOWER(?)", f.Slug)
	}
	if f.Title != "" {
		w.Add("title = ?", f.Title)
	}
	if !f.PublishedAsOf.IsZero() {
		w.Add("state = ? AND published_timestamp IS NOT NULL AND published_timestamp <= ?",
			content.StatePublish, f.PublishedAsOf)
	}
	return w
}

// Find runs f against the table in the given order.
func (r *Repository) Find(ctx context.Context, f Filter, order string) ([]Playlist, error) {
	return r.find(ctx, r.db, f, order)
}

func (r *Repository) find(ctx context.Context, q db.Querier, f Filter, order string) ([]Playlist, error) {
	w := f.where()
	rows, err := q.QueryContext(ctx,
		`SELECT `+playlistColumns+` FROM playlists`+w.SQL()+` ORDER BY `+order, w.Args()...)
	if err != nil {
		return nil, fmt.Errorf("list playlists: %w", err)
	}
	defer rows.Close()

	out := []Playlist{}
	for rows.Next() {
		p, err := scanPlaylist(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// GetOrCreateByTitle returns the oldest top-level freestanding playlist
// titled title, creating a draft one when none exists. It runs on q so
// callers can use it inside a transaction.
func (r *Repository) GetOrCreateByTitle(ctx context.Context, q db.Querier, title string) (*Playlist, bool, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, false, ErrTitleRequired
	}
	found, err := r.find(ctx, q, Filter{Type: content.TypePlaylist, parent: parentNone, Title: title}, "created_at, id")
	if err != nil {
		return nil, false, err
	}
	if len(found) > 0 {
		return &found[0], false, nil
	}
	p := &Playlist{Title: title, Type: content.TypePlaylist, Active: true}
	if err := r.create(ctx, q, p); err != nil {
		return nil, false, err
	}
	return p, true, nil
}

// Delete removes the playlist with its items, tags and ratings. Children
// become top-level.
func (r *Repository) Delete(ctx context.Context, id string) error {
	ref := content.Ref{Kind: content.KindPlaylist, ID: id}
	return db.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := tags.DeleteForObject(ctx, tx, ref); err != nil {
			return err
		}
		if err := ratings.DeleteForObject(ctx, tx, ref); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM playlists WHERE id=$1", id)
		if err != nil {
			return fmt.Errorf("delete playlist: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}
		return nil
	})
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPlaylist(s scanner) (*Playlist, error) {
	p := &Playlist{}
	var publishedAt sql.NullTime
	if err := s.Scan(&p.ID, &p.ParentID, &p.CategoryID, &p.Type, &p.Order, &p.Title, &p.Description,
		&p.Slug, &p.VideoID, &p.Active, &p.State, &publishedAt, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if publishedAt.Valid {
		p.PublishedAt = &publishedAt.Time
	}
	return p, nil
}
