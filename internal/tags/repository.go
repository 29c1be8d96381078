package tags

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/JustinTDCT/flixcatalog/internal/content"
	"github.com/JustinTDCT/flixcatalog/internal/db"
)

const tagColumns = `id, tag, object_kind, object_id, created_at`

type Repository struct {
	db       *sql.DB
	registry *content.Registry
}

func NewRepository(db *sql.DB, registry *content.Registry) *Repository {
	return &Repository{db: db, registry: registry}
}

func (r *Repository) Create(ctx context.Context, t *TaggedItem) error {
	ref, err := r.validate(ctx, t)
	if err != nil {
		return err
	}
	t.ID = uuid.NewString()
	t.Ref = ref
	t.CreatedAt = content.Now()

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO tagged_items (id, tag, object_kind, object_id, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		t.ID, t.Tag, t.Ref.Kind, t.Ref.ID, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert tag: %w", err)
	}
	return nil
}

func (r *Repository) Update(ctx context.Context, t *TaggedItem) error {
	ref, err := r.validate(ctx, t)
	if err != nil {
		return err
	}
	t.Ref = ref

	res, err := r.db.ExecContext(ctx,
		"UPDATE tagged_items SET tag=$1, object_kind=$2, object_id=$3 WHERE id=$4",
		t.Tag, t.Ref.Kind, t.Ref.ID, t.ID)
	if err != nil {
		return fmt.Errorf("update tag: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// validate checks the tag text and resolves the reference to its
// canonical form.
func (r *Repository) validate(ctx context.Context, t *TaggedItem) (content.Ref, error) {
	if !ValidTag(t.Tag) {
		return content.Ref{}, ErrInvalidTag
	}
	return r.registry.Resolve(ctx, t.Ref)
}

func (r *Repository) Get(ctx context.Context, id string) (*TaggedItem, error) {
	t, err := scanTag(r.db.QueryRowContext(ctx, `SELECT `+tagColumns+` FROM tagged_items WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get tag: %w", err)
	}
	return t, nil
}

// List returns tags matching f, newest first. A kind alias such as "movie"
// filters on its canonical kind.
func (r *Repository) List(ctx context.Context, f Filter) ([]TaggedItem, error) {
	var w db.Where
	if f.Kind != "" {
		kind, ok := r.registry.Canonical(f.Kind)
		if !ok {
			return nil, fmt.Errorf("%w: %q", content.ErrInvalidKind, f.Kind)
		}
		w.Add("object_kind = ?", kind)
	}
	if f.ObjectID != "" {
		w.Add("object_id = ?", f.ObjectID)
	}
	if f.Tag != "" {
		w.Add("LOWER(tag) = LOWER(?)", f.Tag)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+tagColumns+` FROM tagged_items`+w.SQL()+` ORDER BY created_at DESC, id`, w.Args()...)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	out := []TaggedItem{}
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// ForObject returns the distinct tag strings attached to ref.
func (r *Repository) ForObject(ctx context.Context, ref content.Ref) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT tag FROM tagged_items
		WHERE object_kind=$1 AND object_id=$2
		ORDER BY tag`, ref.Kind, ref.ID)
	if err != nil {
		return nil, fmt.Errorf("object tags: %w", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, err
		}
		out = append(out, tag)
	}
	return out, rows.Err()
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM tagged_items WHERE id=$1", id)
	if err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteForObject removes every tag attached to ref. Callers deleting the
// referenced row run it inside the same transaction.
func DeleteForObject(ctx context.Context, q db.Querier, ref content.Ref) error {
	if _, err := q.ExecContext(ctx,
		"DELETE FROM tagged_items WHERE object_kind=$1 AND object_id=$2", ref.Kind, ref.ID); err != nil {
		return fmt.Errorf("delete tags for %s: %w", ref, err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTag(s scanner) (*TaggedItem, error) {
	t := &TaggedItem{}
	if err := s.Scan(&t.ID, &t.Tag, &t.Ref.Kind, &t.Ref.ID, &t.CreatedAt); err != nil {
		return nil, err
	}
	return t, nil
}
