package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/JustinTDCT/flixcatalog/internal/content"
	"github.com/JustinTDCT/flixcatalog/internal/db"
	"github.com/JustinTDCT/flixcatalog/internal/ratings"
	"github.com/JustinTDCT/flixcatalog/internal/tags"
)

const userColumns = `id, email, name, password_hash, is_active, is_staff, is_superuser,
	last_login, created_at, updated_at`

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, u *User) error {
	if u.Email == "" {
		return ErrEmailRequired
	}
	now := content.Now()
	u.ID = uuid.NewString()
	u.CreatedAt, u.UpdatedAt = now, now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, email, name, password_hash, is_active, is_staff, is_superuser, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		u.ID, u.Email, u.Name, u.PasswordHash, u.IsActive, u.IsStaff, u.IsSuperuser, u.CreatedAt, u.UpdatedAt,
	)
	if db.IsUniqueViolation(err) {
		return ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// CreateSuperuser stores u with staff and superuser rights.
func (r *Repository) CreateSuperuser(ctx context.Context, u *User) error {
	u.IsStaff = true
	u.IsSuperuser = true
	u.IsActive = true
	return r.Create(ctx, u)
}

func (r *Repository) GetByID(ctx context.Context, id string) (*User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email=$1`, NormalizeEmail(email))
}

func (r *Repository) getOne(ctx context.Context, query string, arg any) (*User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (r *Repository) List(ctx context.Context) ([]User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

func (r *Repository) TouchLastLogin(ctx context.Context, id string) error {
	now := content.Now()
	_, err := r.db.ExecContext(ctx, "UPDATE users SET last_login=$1, updated_at=$2 WHERE id=$3", now, now, id)
	return err
}

// Delete removes the user. Videos, the user's ratings and sessions go by
// cascade; tags and ratings attached to the user's videos are removed first.
func (r *Repository) Delete(ctx context.Context, id string) error {
	return db.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		videoIDs, err := ownedVideos(ctx, tx, id)
		if err != nil {
			return err
		}
		for _, vid := range videoIDs {
			ref := content.Ref{Kind: content.KindVideo, ID: vid}
			if err := tags.DeleteForObject(ctx, tx, ref); err != nil {
				return err
			}
			if err := ratings.DeleteForObject(ctx, tx, ref); err != nil {
				return err
			}
		}

		res, err := tx.ExecContext(ctx, "DELETE FROM users WHERE id=$1", id)
		if err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func ownedVideos(ctx context.Context, q db.Querier, userID string) ([]string, error) {
	rows, err := q.QueryContext(ctx, "SELECT id FROM videos WHERE user_id=$1", userID)
	if err != nil {
		return nil, fmt.Errorf("list user videos: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var vid string
		if err := rows.Scan(&vid); err != nil {
			return nil, err
		}
		ids = append(ids, vid)
	}
	return ids, rows.Err()
}

func (r *Repository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count)
	return count, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (*User, error) {
	u := &User{}
	var lastLogin sql.NullTime
	if err := s.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.IsActive, &u.IsStaff,
		&u.IsSuperuser, &lastLogin, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	if lastLogin.Valid {
		u.LastLogin = &lastLogin.Time
	}
	return u, nil
}
