package videos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/JustinTDCT/flixcatalog/internal/content"
	"github.com/JustinTDCT/flixcatalog/internal/db"
	"github.com/JustinTDCT/flixcatalog/internal/playlists"
	"github.com/JustinTDCT/flixcatalog/internal/ratings"
	"github.com/JustinTDCT/flixcatalog/internal/tags"
)

const videoColumns = `id, user_id, title, description, slug, video_id, active, state,
	published_timestamp, created_at, updated_at`

type Repository struct {
	db        *sql.DB
	deriver   *content.Deriver
	playlists *playlists.Repository
}

func NewRepository(db *sql.DB, deriver *content.Deriver, playlistRepo *playlists.Repository) *Repository {
	return &Repository{db: db, deriver: deriver, playlists: playlistRepo}
}

func (r *Repository) prepare(ctx context.Context, v *Video) error {
	v.Title = strings.TrimSpace(v.Title)
	v.VideoID = strings.TrimSpace(v.VideoID)
	if v.Title == "" {
		return ErrTitleRequired
	}
	if v.VideoID == "" {
		return ErrVideoIDRequired
	}
	if v.State != "" && !v.State.Valid() {
		return content.ErrInvalidState
	}
	return r.deriver.Apply(ctx, content.Record{
		Title:      v.Title,
		Slug:       &v.Slug,
		Publishing: &v.Publishing,
		Exists: func(ctx context.Context, slug string) (bool, error) {
			var one int
			err := r.db.QueryRowContext(ctx,
				"SELECT 1 FROM videos WHERE slug=$1 AND id<>$2 LIMIT 1", slug, v.ID).Scan(&one)
			if errors.Is(err, sql.ErrNoRows) {
				return false, nil
			}
			return err == nil, err
		},
	})
}

// Create stores v owned by v.UserID. A non-nil m attaches the video to
// the named playlists in the same transaction.
func (r *Repository) Create(ctx context.Context, v *Video, m *Memberships) error {
	if err := r.prepare(ctx, v); err != nil {
		return err
	}
	now := r.deriver.Now()
	v.ID = uuid.NewString()
	v.CreatedAt, v.UpdatedAt = now, now

	return db.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO videos (id, user_id, title, description, slug, video_id, active, state,
			                    published_timestamp, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			v.ID, v.UserID, v.Title, v.Description, v.Slug, v.VideoID, v.Active, v.State,
			v.PublishedAt, v.CreatedAt, v.UpdatedAt)
		if db.IsUniqueViolation(err) {
			return ErrDuplicateVideoID
		}
		if err != nil {
			return fmt.Errorf("insert video: %w", err)
		}
		return r.replaceMemberships(ctx, tx, v.ID, m)
	})
}

// Update saves v. Ownership never changes. A non-nil m replaces the
// video's playlist memberships in the same transaction.
func (r *Repository) Update(ctx context.Context, v *Video, m *Memberships) error {
	if err := r.prepare(ctx, v); err != nil {
		return err
	}
	v.UpdatedAt = r.deriver.Now()

	return db.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE videos
			SET title=$1, description=$2, slug=$3, video_id=$4, active=$5, state=$6,
			    published_timestamp=$7, updated_at=$8
			WHERE id=$9 AND user_id=$10`,
			v.Title, v.Description, v.Slug, v.VideoID, v.Active, v.State,
			v.PublishedAt, v.UpdatedAt, v.ID, v.UserID)
		if db.IsUniqueViolation(err) {
			return ErrDuplicateVideoID
		}
		if err != nil {
			return fmt.Errorf("update video: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}
		return r.replaceMemberships(ctx, tx, v.ID, m)
	})
}

// replaceMemberships clears every item row of the video, then reattaches it
// to each named playlist once.
func (r *Repository) replaceMemberships(ctx context.Context, tx *sql.Tx, videoID string, m *Memberships) error {
	if m == nil {
		return nil
	}
	if err := r.playlists.DetachVideo(ctx, tx, videoID); err != nil {
		return err
	}
	attached := make(map[string]bool, len(m.Titles))
	for _, title := range m.Titles {
		p, _, err := r.playlists.GetOrCreateByTitle(ctx, tx, title)
		if err != nil {
			return fmt.Errorf("playlist %q: %w", title, err)
		}
		if attached[p.ID] {
			continue
		}
		attached[p.ID] = true
		if err := r.playlists.AddVideo(ctx, tx, p.ID, videoID); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, id string) (*Video, error) {
	return r.one(ctx, `SELECT `+videoColumns+` FROM videos WHERE id=$1`, id)
}

// GetForOwner hides videos of other users behind ErrNotFound.
func (r *Repository) GetForOwner(ctx context.Context, id, ownerID string) (*Video, error) {
	return r.one(ctx, `SELECT `+videoColumns+` FROM videos WHERE id=$1 AND user_id=$2`, id, ownerID)
}

func (r *Repository) one(ctx context.Context, query string, args ...any) (*Video, error) {
	v, err := scanVideo(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get video: %w", err)
	}
	return v, nil
}

func (r *Repository) Exists(ctx context.Context, id string) (bool, error) {
	_, err := r.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// ListByOwner returns the owner's videos, newest first.
func (r *Repository) ListByOwner(ctx context.Context, ownerID string) ([]Video, error) {
	var w db.Where
	w.Add("user_id = ?", ownerID)
	return r.list(ctx, w, "created_at DESC, id")
}

func (r *Repository) All(ctx context.Context) ([]Video, error) {
	return r.list(ctx, db.Where{}, "created_at DESC, id")
}

// Published returns videos whose state is PU and whose timestamp has passed.
func (r *Repository) Published(ctx context.Context) ([]Video, error) {
	return r.list(ctx, r.published(), "published_timestamp DESC, id")
}

// PublishedProxy is Published restricted to active videos.
func (r *Repository) PublishedProxy(ctx context.Context) ([]Video, error) {
	w := r.published()
	w.Add("active = ?", true)
	return r.list(ctx, w, "published_timestamp DESC, id")
}

func (r *Repository) published() db.Where {
	var w db.Where
	w.Add("state = ? AND published_timestamp IS NOT NULL AND published_timestamp <= ?",
		content.StatePublish, r.deriver.Now())
	return w
}

func (r *Repository) list(ctx context.Context, w db.Where, order string) ([]Video, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+videoColumns+` FROM videos`+w.SQL()+` ORDER BY `+order, w.Args()...)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	defer rows.Close()

	out := []Video{}
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, rows.Err()
}

// Playlists lists the playlists the video is an item of.
func (r *Repository) Playlists(ctx context.Context, videoID string) ([]PlaylistSummary, error) {
	found, err := r.playlists.ForVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}
	out := make([]PlaylistSummary, 0, len(found))
	for _, p := range found {
		out = append(out, PlaylistSummary{ID: p.ID, Title: p.Title})
	}
	return out, nil
}

// FeaturedIn returns the ids of playlists that use the video as their
// featured video.
func (r *Repository) FeaturedIn(ctx context.Context, videoID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id FROM playlists WHERE video_id=$1 ORDER BY id", videoID)
	if err != nil {
		return nil, fmt.Errorf("featured playlists: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeleteForOwner removes one of the owner's videos with its tags and
// ratings. Items go by cascade; playlists featuring it lose the reference.
func (r *Repository) DeleteForOwner(ctx context.Context, id, ownerID string) error {
	ref := content.Ref{Kind: content.KindVideo, ID: id}
	return db.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "DELETE FROM videos WHERE id=$1 AND user_id=$2", id, ownerID)
		if err != nil {
			return fmt.Errorf("delete video: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}
		if err := tags.DeleteForObject(ctx, tx, ref); err != nil {
			return err
		}
		return ratings.DeleteForObject(ctx, tx, ref)
	})
}

type scanner interface {
	Scan(dest ...any) error
}

func scanVideo(s scanner) (*Video, error) {
	v := &Video{}
	var publishedAt sql.NullTime
	if err := s.Scan(&v.ID, &v.UserID, &v.Title, &v.Description, &v.Slug, &v.VideoID, &v.Active,
		&v.State, &publishedAt, &v.CreatedAt, &v.UpdatedAt); err != nil {
		return nil, err
	}
	if publishedAt.Valid {
		v.PublishedAt = &publishedAt.Time
	}
	return v, nil
}
