package tags

import (
	"errors"
	"regexp"
	"time"

	"github.com/JustinTDCT/flixcatalog/internal/content"
)

var (
	ErrNotFound   = errors.New("tag not found")
	ErrInvalidTag = errors.New("tag must be letters, digits, hyphens or underscores")

	tagPattern = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
)

// TaggedItem attaches a free-form tag to any registered entity.
type TaggedItem struct {
	ID  string `json:"id"`
	Tag string `json:"tag"`
	content.Ref
	CreatedAt time.Time `json:"created_at"`
}

func ValidTag(tag string) bool {
	return len(tag) <= 50 && tagPattern.MatchString(tag)
}

type Filter struct {
	Kind     content.Kind
	ObjectID string
	Tag      string
}
