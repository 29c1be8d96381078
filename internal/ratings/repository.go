package ratings

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/JustinTDCT/flixcatalog/internal/content"
	"github.com/JustinTDCT/flixcatalog/internal/db"
)

type Repository struct {
	db       *sql.DB
	registry *content.Registry
}

func NewRepository(db *sql.DB, registry *content.Registry) *Repository {
	return &Repository{db: db, registry: registry}
}

func (r *Repository) Create(ctx context.Context, rt *Rating) error {
	if !ValidValue(rt.Value) {
		return ErrInvalidRating
	}
	ref, err := r.registry.Resolve(ctx, rt.Ref)
	if err != nil {
		return err
	}
	rt.ID = uuid.NewString()
	rt.Ref = ref
	rt.CreatedAt = content.Now()

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO ratings (id, user_id, value, object_kind, object_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		rt.ID, rt.UserID, rt.Value, rt.Ref.Kind, rt.Ref.ID, rt.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert rating: %w", err)
	}
	return nil
}

// Average is the mean of the non-null values for ref, nil without any.
func (r *Repository) Average(ctx context.Context, ref content.Ref) (*float64, error) {
	var avg sql.NullFloat64
	err := r.db.QueryRowContext(ctx,
		"SELECT AVG(value) FROM ratings WHERE object_kind=$1 AND object_id=$2", ref.Kind, ref.ID,
	).Scan(&avg)
	if err != nil {
		return nil, fmt.Errorf("rating average: %w", err)
	}
	if !avg.Valid {
		return nil, nil
	}
	return &avg.Float64, nil
}

// Spread is the highest and lowest non-null value for ref, nil without any.
func (r *Repository) Spread(ctx context.Context, ref content.Ref) (*Spread, error) {
	var hi, lo sql.NullInt64
	err := r.db.QueryRowContext(ctx,
		"SELECT MAX(value), MIN(value) FROM ratings WHERE object_kind=$1 AND object_id=$2", ref.Kind, ref.ID,
	).Scan(&hi, &lo)
	if err != nil {
		return nil, fmt.Errorf("rating spread: %w", err)
	}
	if !hi.Valid || !lo.Valid {
		return nil, nil
	}
	return &Spread{Max: int(hi.Int64), Min: int(lo.Int64)}, nil
}

func (r *Repository) Summarize(ctx context.Context, ref content.Ref) (*Summary, error) {
	s := &Summary{}
	var err error
	if s.Average, err = r.Average(ctx, ref); err != nil {
		return nil, err
	}
	if s.Spread, err = r.Spread(ctx, ref); err != nil {
		return nil, err
	}
	err = r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM ratings WHERE object_kind=$1 AND object_id=$2", ref.Kind, ref.ID,
	).Scan(&s.Count)
	if err != nil {
		return nil, fmt.Errorf("rating count: %w", err)
	}
	return s, nil
}

// DeleteForObject removes every rating of ref. Callers deleting the
// referenced row run it inside the same transaction.
func DeleteForObject(ctx context.Context, q db.Querier, ref content.Ref) error {
	if _, err := q.ExecContext(ctx,
		"DELETE FROM ratings WHERE object_kind=$1 AND object_id=$2", ref.Kind, ref.ID); err != nil {
		return fmt.Errorf("delete ratings for %s: %w", ref, err)
	}
	return nil
}
