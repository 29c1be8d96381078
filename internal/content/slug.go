package content

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/mozillazg/go-unidecode"
	"github.com/sethvargo/go-password/password"
)

const (
	MaxSlugLength = 50
	SlugSuffixLen = 10
)

var (
	ErrSlugExhausted = errors.New("could not find a free slug")

	errSlugTaken = errors.New("slug taken")

	slugStrip    = regexp.MustCompile(`[^a-z0-9_\s-]+`)
	slugCollapse = regexp.MustCompile(`[-\s]+`)
)

// Slugify turns a title into a lowercase, hyphenated ASCII identifier.
func Slugify(title string) string {
	s := strings.ToLower(unidecode.Unidecode(title))
	s = slugStrip.ReplaceAllString(s, "")
	s = slugCollapse.ReplaceAllString(strings.TrimSpace(s), "-")
	s = strings.Trim(s, "-_")
	if len(s) > MaxSlugLength {
		s = strings.TrimRight(s[:MaxSlugLength], "-_")
	}
	return s
}

// ExistsFunc reports whether slug is already used inside the caller's
// uniqueness scope.
type ExistsFunc func(ctx context.Context, slug string) (bool, error)

type SlugGenerator struct {
	maxAttempts uint
	suffix      func() (string, error)
}

func NewSlugGenerator(maxAttempts int) *SlugGenerator {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &SlugGenerator{
		maxAttempts: uint(maxAttempts),
		suffix:      randomSuffix,
	}
}

func randomSuffix() (string, error) {
	return password.Generate(SlugSuffixLen, 3, 0, true, true)
}

// Unique derives a slug from title and appends a random suffix until exists
// reports it free, giving up after the configured number of checks.
func (g *SlugGenerator) Unique(ctx context.Context, title string, exists ExistsFunc) (string, error) {
	base := Slugify(title)
	candidate := base
	var found string

	err := retry.Do(
		func() error {
			taken, err := exists(ctx, candidate)
			if err != nil {
				return err
			}
			if !taken {
				found = candidate
				return nil
			}
			suffix, err := g.suffix()
			if err != nil {
				return err
			}
			candidate = withSuffix(base, suffix)
			return errSlugTaken
		},
		retry.Context(ctx),
		retry.Attempts(g.maxAttempts),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool { return errors.Is(err, errSlugTaken) }),
		retry.DelayType(func(uint, error, *retry.Config) time.Duration { return 0 }),
	)
	if errors.Is(err, errSlugTaken) {
		return "", ErrSlugExhausted
	}
	if err != nil {
		return "", err
	}
	return found, nil
}

func withSuffix(base, suffix string) string {
	if limit := MaxSlugLength - len(suffix); len(base) > limit {
		base = base[:limit]
	}
	return base + suffix
}
