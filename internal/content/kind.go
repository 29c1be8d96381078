package content

import "errors"

// PlaylistType discriminates the logical content kinds stored in the
// playlists table.
type PlaylistType string

const (
	TypeMovie    PlaylistType = "MOV"
	TypeShow     PlaylistType = "TVS"
	TypeSeason   PlaylistType = "SEA"
	TypePlaylist PlaylistType = "PLY"
)

var ErrInvalidType = errors.New("type must be one of MOV, TVS, SEA, PLY")

func (t PlaylistType) Valid() bool {
	switch t {
	case TypeMovie, TypeShow, TypeSeason, TypePlaylist:
		return true
	}
	return false
}

func (t PlaylistType) Label() string {
	switch t {
	case TypeMovie:
		return "Movie"
	case TypeShow:
		return "TV Show"
	case TypeSeason:
		return "Season"
	case TypePlaylist:
		return "Playlist"
	}
	return string(t)
}
