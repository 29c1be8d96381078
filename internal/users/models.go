package users

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound      = errors.New("user not found")
	ErrEmailRequired = errors.New("users must have an email address")
	ErrEmailTaken    = errors.New("email already registered")
)

type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	PasswordHash string     `json:"-"`
	IsActive     bool       `json:"is_active"`
	IsStaff      bool       `json:"is_staff"`
	IsSuperuser  bool       `json:"is_superuser"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// New validates and normalizes the identity fields of a user that has not
// been stored yet.
func New(email, name, passwordHash string) (*User, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, ErrEmailRequired
	}
	return &User{
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: passwordHash,
		IsActive:     true,
	}, nil
}

// NormalizeEmail trims the address and lowercases its domain part. The local
// part is case sensitive and left as given.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at] + "@" + strings.ToLower(email[at+1:])
}
