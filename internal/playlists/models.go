package playlists

import (
	"errors"
	"time"

	"github.com/JustinTDCT/flixcatalog/internal/content"
)

var (
	ErrNotFound         = errors.New("playlist not found")
	ErrTitleRequired    = errors.New("title is required")
	ErrInvalidReference = errors.New("parent, category or video does not exist")
	ErrSelfParent       = errors.New("a playlist cannot be its own parent")
	ErrUnknownVideo     = errors.New("video does not exist")
)

// Playlist is the single stored shape behind freestanding playlists,
// movies, shows and seasons. Type selects the logical kind.
type Playlist struct {
	ID          string               `json:"id"`
	ParentID    *string              `json:"parent"`
	CategoryID  *string              `json:"category"`
	Type        content.PlaylistType `json:"type"`
	Order       int                  `json:"order"`
	Title       string               `json:"title"`
	Description *string              `json:"description"`
	Slug        string               `json:"slug"`
	VideoID     *string              `json:"video"`
	Active      bool                 `json:"active"`
	content.Publishing
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *Playlist) Ref() content.Ref {
	return content.Ref{Kind: content.KindPlaylist, ID: p.ID}
}

// PlaylistVideo is a video as it appears inside a playlist.
type PlaylistVideo struct {
	ID          string               `json:"id"`
	Title       string               `json:"title"`
	Slug        string               `json:"slug"`
	VideoID     string               `json:"video_id"`
	State       content.PublishState `json:"state"`
	PublishedAt *time.Time           `json:"published_timestamp"`
	Order       int                  `json:"order"`
	AddedAt     time.Time            `json:"added_at"`
}

type parentRule int

const (
	parentAny parentRule = iota
	parentNone
	parentRequired
)

// Filter narrows playlist queries. Zero values do not filter.
type Filter struct {
	Type       content.PlaylistType
	parent     parentRule
	ParentID   string
	ParentSlug string
	CategoryID string
	Slug       string
	Title      string
	// PublishedAsOf keeps rows published at or before the instant.
	PublishedAsOf time.Time
}
