package content

import (
	"errors"
	"time"
)

// PublishState is the two-value lifecycle shared by videos and playlists.
type PublishState string

const (
	StatePublish PublishState = "PU"
	StateDraft   PublishState = "DR"
)

var ErrInvalidState = errors.New("state must be PU (publish) or DR (draft)")

func (s PublishState) Valid() bool {
	return s == StatePublish || s == StateDraft
}

// Publishing holds the lifecycle state and the timestamp derived from it.
type Publishing struct {
	State       PublishState `json:"state"`
	PublishedAt *time.Time   `json:"published_timestamp"`
}

// Resolve stamps PublishedAt the first time the entity is saved as
// published and clears it whenever the entity is saved as a draft.
func (p *Publishing) Resolve(now time.Time) {
	switch p.State {
	case StatePublish:
		if p.PublishedAt == nil {
			t := now
			p.PublishedAt = &t
		}
	case StateDraft:
		p.PublishedAt = nil
	}
}

// IsPublished reports whether the entity is visible at the given instant.
func (p Publishing) IsPublished(now time.Time) bool {
	return p.State == StatePublish && p.PublishedAt != nil && !p.PublishedAt.After(now)
}

// Now is the clock used for derived timestamps. UTC with microsecond
// precision so values survive a round trip through either driver.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
