package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/JustinTDCT/flixcatalog/internal/content"
	"github.com/JustinTDCT/flixcatalog/internal/users"
)

// Service registers users and issues, verifies and revokes access tokens.
type Service struct {
	users    *users.Repository
	sessions *sessionStore
	tokens   *Tokens
	now      func() time.Time
}

func NewService(conn *sql.DB, userRepo *users.Repository, tokens *Tokens) *Service {
	return &Service{
		users:    userRepo,
		sessions: &sessionStore{db: conn},
		tokens:   tokens,
		now:      content.Now,
	}
}

// Register creates an ordinary user and signs them in.
func (s *Service) Register(ctx context.Context, email, name, password string) (*users.User, string, error) {
	if err := ValidatePassword(password); err != nil {
		return nil, "", err
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}
	u, err := users.New(email, name, hash)
	if err != nil {
		return nil, "", err
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, "", err
	}
	token, err := s.issue(ctx, u.ID)
	if err != nil {
		return nil, "", err
	}
	log.Info().Str("user_id", u.ID).Msg("user registered")
	return u, token, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*users.User, string, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, users.ErrNotFound) {
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", err
	}
	if !u.IsActive || !CheckPassword(u.PasswordHash, password) {
		return nil, "", ErrInvalidCredentials
	}
	token, err := s.issue(ctx, u.ID)
	if err != nil {
		return nil, "", err
	}
	if err := s.users.TouchLastLogin(ctx, u.ID); err != nil {
		log.Warn().Err(err).Str("user_id", u.ID).Msg("failed to record last login")
	}
	return u, token, nil
}

func (s *Service) issue(ctx context.Context, userID string) (string, error) {
	now := s.now()
	token, exp, err := s.tokens.Issue(userID, now)
	if err != nil {
		return "", err
	}
	if err := s.sessions.create(ctx, token, userID, exp, now); err != nil {
		return "", err
	}
	return token, nil
}

// Authenticate verifies the token signature, then that its session is
// still live and belongs to an active user.
func (s *Service) Authenticate(ctx context.Context, token string) (*ContextUserData, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	sess, err := s.sessions.lookup(ctx, token)
	if err != nil {
		return nil, err
	}
	if sess.UserID != claims.Subject || !sess.IsActive {
		return nil, ErrInvalidToken
	}
	if !sess.ExpiresAt.After(s.now()) {
		if err := s.sessions.revoke(ctx, token); err != nil {
			log.Warn().Err(err).Msg("failed to drop expired session")
		}
		return nil, ErrTokenExpired
	}
	return &ContextUserData{UserID: sess.UserID, IsStaff: sess.IsStaff}, nil
}

func (s *Service) Logout(ctx context.Context, token string) error {
	return s.sessions.revoke(ctx, token)
}

// PurgeExpiredSessions deletes sessions past their expiry.
func (s *Service) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	return s.sessions.purgeExpired(ctx, s.now())
}
