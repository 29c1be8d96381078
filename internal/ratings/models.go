package ratings

import (
	"errors"
	"time"

	"github.com/JustinTDCT/flixcatalog/internal/content"
)

const (
	MinValue = 1
	MaxValue = 5
)

var ErrInvalidRating = errors.New("rating must be between 1 and 5")

// Rating is one user's score for any registered entity. A nil Value records
// that the user has seen it without scoring it.
type Rating struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	Value  *int   `json:"value"`
	content.Ref
	CreatedAt time.Time `json:"created_at"`
}

func ValidValue(v *int) bool {
	return v == nil || (*v >= MinValue && *v <= MaxValue)
}

type Spread struct {
	Max int `json:"max"`
	Min int `json:"min"`
}

// Summary aggregates the ratings of one entity. Average and Spread stay nil
// until at least one non-null value exists.
type Summary struct {
	Average *float64 `json:"average"`
	Spread  *Spread  `json:"spread"`
	Count   int      `json:"count"`
}
