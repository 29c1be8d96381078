package content

import (
	"context"
	"fmt"
	"time"
)

// Record describes the derived fields of one entity about to be written.
type Record struct {
	Title string
	Slug  *string
	// Exists checks slug collisions inside the entity's scope.
	Exists ExistsFunc
	// Publishing is nil for entities without a lifecycle.
	Publishing *Publishing
}

// Deriver runs the write-path derivations in a fixed order: slug first,
// then publish state.
type Deriver struct {
	slugs *SlugGenerator
	now   func() time.Time
}

func NewDeriver(slugs *SlugGenerator) *Deriver {
	return &Deriver{slugs: slugs, now: Now}
}

// WithClock returns a copy of d that stamps timestamps from now.
func (d *Deriver) WithClock(now func() time.Time) *Deriver {
	return &Deriver{slugs: d.slugs, now: now}
}

func (d *Deriver) Now() time.Time {
	return d.now()
}

func (d *Deriver) Apply(ctx context.Context, rec Record) error {
	if rec.Slug != nil && *rec.Slug == "" {
		slug, err := d.slugs.Unique(ctx, rec.Title, rec.Exists)
		if err != nil {
			return fmt.Errorf("derive slug: %w", err)
		}
		*rec.Slug = slug
	}
	if rec.Publishing != nil {
		if rec.Publishing.State == "" {
			rec.Publishing.State = StateDraft
		}
		rec.Publishing.Resolve(d.now())
	}
	return nil
}
