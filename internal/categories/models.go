package categories

import (
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("category not found")
	ErrTitleRequired = errors.New("title is required")
)

type Category struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
