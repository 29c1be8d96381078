package playlists

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/JustinTDCT/flixcatalog/internal/content"
	"github.com/JustinTDCT/flixcatalog/internal/db"
)

// Videos returns the playlist's videos by item order, most recently added
// first among equal orders.
func (r *Repository) Videos(ctx context.Context, playlistID string) ([]PlaylistVideo, error) {
	return r.videos(ctx, playlistID, time.Time{})
}

// PublishedVideos is Videos restricted to videos visible now.
func (r *Repository) PublishedVideos(ctx context.Context, playlistID string) ([]PlaylistVideo, error) {
	return r.videos(ctx, playlistID, r.deriver.Now())
}

func (r *Repository) videos(ctx context.Context, playlistID string, asOf time.Time) ([]PlaylistVideo, error) {
	var w db.Where
	w.Add("i.playlist_id = ?", playlistID)
	if !asOf.IsZero() {
		w.Add("v.state = ? AND v.published_timestamp IS NOT NULL AND v.published_timestamp <= ?",
			content.StatePublish, asOf)
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT v.id, v.title, v.slug, v.video_id, v.state, v.published_timestamp, i.sort_order, i.created_at
		FROM playlist_items i JOIN videos v ON v.id = i.video_id`+w.SQL()+`
		ORDER BY i.sort_order ASC, i.created_at DESC, i.id`, w.Args()...)
	if err != nil {
		return nil, fmt.Errorf("playlist videos: %w", err)
	}
	defer rows.Close()

	out := []PlaylistVideo{}
	for rows.Next() {
		var v PlaylistVideo
		var publishedAt sql.NullTime
		if err := rows.Scan(&v.ID, &v.Title, &v.Slug, &v.VideoID, &v.State, &publishedAt,
			&v.Order, &v.AddedAt); err != nil {
			return nil, err
		}
		if publishedAt.Valid {
			v.PublishedAt = &publishedAt.Time
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// SetVideos replaces the playlist's items with videoIDs in the given order.
// Repeated ids keep their first position.
func (r *Repository) SetVideos(ctx context.Context, playlistID string, videoIDs []string) error {
	return db.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var one int
		err := tx.QueryRowContext(ctx, "SELECT 1 FROM playlists WHERE id=$1", playlistID).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM playlist_items WHERE playlist_id=$1", playlistID); err != nil {
			return fmt.Errorf("clear playlist items: %w", err)
		}

		seen := make(map[string]bool, len(videoIDs))
		order := 0
		now := r.deriver.Now()
		for _, videoID := range videoIDs {
			if seen[videoID] {
				continue
			}
			seen[videoID] = true
			order++
			if err := insertItem(ctx, tx, playlistID, videoID, order, now); err != nil {
				return err
			}
		}
		return nil
	})
}

// AddVideo appends videoID to the end of the playlist on q.
func (r *Repository) AddVideo(ctx context.Context, q db.Querier, playlistID, videoID string) error {
	var last int
	err := q.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(sort_order), 0) FROM playlist_items WHERE playlist_id=$1", playlistID,
	).Scan(&last)
	if err != nil {
		return fmt.Errorf("next item order: %w", err)
	}
	return insertItem(ctx, q, playlistID, videoID, last+1, r.deriver.Now())
}

// DetachVideo removes videoID from every playlist on q.
func (r *Repository) DetachVideo(ctx context.Context, q db.Querier, videoID string) error {
	if _, err := q.ExecContext(ctx, "DELETE FROM playlist_items WHERE video_id=$1", videoID); err != nil {
		return fmt.Errorf("detach video: %w", err)
	}
	return nil
}

// ForVideo lists the playlists containing videoID.
func (r *Repository) ForVideo(ctx context.Context, videoID string) ([]Playlist, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+playlistColumns+` FROM playlists
		WHERE id IN (SELECT playlist_id FROM playlist_items WHERE video_id=$1)
		ORDER BY `+orderDisplay, videoID)
	if err != nil {
		return nil, fmt.Errorf("playlists for video: %w", err)
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

func insertItem(ctx context.Context, q db.Querier, playlistID, videoID string, order int, now time.Time) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO playlist_items (id, playlist_id, video_id, sort_order, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		uuid.NewString(), playlistID, videoID, order, now)
	if db.IsForeignKeyViolation(err) {
		return fmt.Errorf("%w: %s", ErrUnknownVideo, videoID)
	}
	if err != nil {
		return fmt.Errorf("insert playlist item: %w", err)
	}
	return nil
}
