package categories

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

const categoryColumns = `id, title, slug, active, created_at, updated_at`

type Repository struct {
	db      *sql.DB
	deriver *content.Deriver
}

func NewRepository(db *sql.DB, deriver *content.Deriver) *Repository {
	return &Repository{db: db, deriver: deriver}
}

func (r *Repository) derive(ctx context.Context, c *Category) error {
	c.Title = strings.TrimSpace(c.Title)
	if c.Title == "" {
		return ErrTitleRequired
	}
	return r.deriver.Apply(ctx, content.Record{
		Title: c.Title,
		Slug:  &c.Slug,
		Exists: func(ctx context.Context, slug string) (bool, error) {
			var one int
			err := r.db.QueryRowContext(ctx,
				"SELECT 1 FROM categories WHERE slug=$1 AND id<>$2 LIMIT 1", slug, c.ID).Scan(&one)
			if errors.Is(err, sql.ErrNoRows) {
				return false, nil
			}
			return err == nil, err
		},
	})
}

func (r *Repository) Create(ctx context.Context, c *Category) error {
	if err := r.derive(ctx, c); err != nil {
		return err
	}
	now := r.deriver.Now()
	c.ID = uuid.NewString()
	c.CreatedAt, c.UpdatedAt = now, now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO categories (id, title, slug, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.Title, c.Slug, c.Active, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

func (r *Repository) Update(ctx context.Context, c *Category) error {
	if err := r.derive(ctx, c); err != nil {
		return err
	}
	c.UpdatedAt = r.deriver.Now()

	res, err := r.db.ExecContext(ctx,
		"UPDATE categories SET title=$1, slug=$2, active=$3, updated_at=$4 WHERE id=$5",
		c.Title, c.Slug, c.Active, c.UpdatedAt, c.ID)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, id string) (*Category, error) {
	c := &Category{}
	err := r.db.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id=$1`, id).
		Scan(&c.ID, &c.Title, &c.Slug, &c.Active, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

func (r *Repository) Exists(ctx context.Context, id string) (bool, error) {
	_, err := r.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// List returns categories ordered by title. activeOnly hides inactive ones.
func (r *Repository) List(ctx context.Context, activeOnly bool) ([]Category, error) {
	var w db.Where
	if activeOnly {
		w.Add("active = ?", true)
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+categoryColumns+` FROM categories`+w.SQL()+` ORDER BY title, created_at`, w.Args()...)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	out := []Category{}
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Title, &c.Slug, &c.Active, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Delete removes the category with its tags and ratings. Playlists that
// referenced it keep existing with no category.
func (r *Repository) Delete(ctx context.Context, id string) error {
	ref := content.Ref{Kind: content.KindCategory, ID: id}
	return db.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := tags.DeleteForObject(ctx, tx, ref); err != nil {
			return err
		}
		if err := ratings.DeleteForObject(ctx, tx, ref); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM categories WHERE id=$1", id)
		if err != nil {
			return fmt.Errorf("delete category: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}
		return nil
	})
}
