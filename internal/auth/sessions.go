package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

type session struct {
	UserID    string
	ExpiresAt time.Time
	IsActive  bool
	IsStaff   bool
}

// sessionStore keeps one row per issued token so tokens can be revoked.
type sessionStore struct {
	db *sql.DB
}

func (s *sessionStore) create(ctx context.Context, token, userID string, expiresAt, now time.Time) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO sessions (token_hash, user_id, expires_at, created_at) VALUES ($1, $2, $3, $4)",
		HashToken(token), userID, expiresAt, now)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (s *sessionStore) lookup(ctx context.Context, token string) (*session, error) {
	var sess session
	err := s.db.QueryRowContext(ctx, `
		SELECT s.user_id, s.expires_at, u.is_active, u.is_staff
		FROM sessions s JOIN users u ON u.id = s.user_id
		WHERE s.token_hash=$1`, HashToken(token),
	).Scan(&sess.UserID, &sess.ExpiresAt, &sess.IsActive, &sess.IsStaff)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("lookup session: %w", err)
	}
	return &sess, nil
}

func (s *sessionStore) revoke(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE token_hash=$1", HashToken(token))
	return err
}

func (s *sessionStore) purgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at < $1", now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
