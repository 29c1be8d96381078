package videos

import (
	"errors"
	"time"

	"github.com/JustinTDCT/flixcatalog/internal/content"
)

var (
	ErrNotFound         = errors.New("video not found")
	ErrTitleRequired    = errors.New("title is required")
	ErrVideoIDRequired  = errors.New("video_id is required")
	ErrDuplicateVideoID = errors.New("a video with this video_id already exists")
)

type Video struct {
	ID          string  `json:"id"`
	UserID      string  `json:"user"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Slug        string  `json:"slug"`
	// VideoID is the external player id, unique across all videos.
	VideoID string `json:"video_id"`
	Active  bool   `json:"active"`
	content.Publishing
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (v *Video) Ref() content.Ref {
	return content.Ref{Kind: content.KindVideo, ID: v.ID}
}

// Memberships replaces the set of freestanding playlists a video belongs
// to. Each title is matched to an existing top-level playlist or created.
type Memberships struct {
	Titles []string
}

type PlaylistSummary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}
