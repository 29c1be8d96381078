package content

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind names an entity type that generic associations can point at.
type Kind string

const (
	KindVideo    Kind = "video"
	KindPlaylist Kind = "playlist"
	KindCategory Kind = "category"
	KindMovie    Kind = "movie"
	KindShow     Kind = "show"
	KindSeason   Kind = "season"
)

var (
	ErrInvalidKind       = errors.New("unknown object kind")
	ErrDanglingReference = errors.New("referenced object does not exist")
)

// Ref points at any registered entity by kind and id.
type Ref struct {
	Kind Kind   `json:"content_type"`
	ID   string `json:"object_id"`
}

func (r Ref) String() string {
	return string(r.Kind) + ":" + r.ID
}

// Resolver reports whether an entity with the given id exists.
type Resolver func(ctx context.Context, id string) (bool, error)

type registration struct {
	canonical Kind
	resolve   Resolver
}

// Registry resolves generic references to concrete entities. A kind may be
// registered as an alias of a canonical kind, e.g. movie resolves through
// the movie projection but is stored as a playlist reference.
type Registry struct {
	kinds map[Kind]registration
}

func NewRegistry() *Registry {
	return &Registry{kinds: make(map[Kind]registration)}
}

func (r *Registry) Register(kind Kind, resolve Resolver) {
	r.kinds[kind] = registration{canonical: kind, resolve: resolve}
}

func (r *Registry) RegisterAlias(kind, canonical Kind, resolve Resolver) {
	r.kinds[kind] = registration{canonical: canonical, resolve: resolve}
}

// Canonical returns the storage kind for kind.
func (r *Registry) Canonical(kind Kind) (Kind, bool) {
	reg, ok := r.kinds[Kind(strings.ToLower(strings.TrimSpace(string(kind))))]
	return reg.canonical, ok
}

func (r *Registry) Kinds() []Kind {
	out := make([]Kind, 0, len(r.kinds))
	for k := range r.kinds {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Resolve checks that ref names an existing entity and returns its
// canonical form.
func (r *Registry) Resolve(ctx context.Context, ref Ref) (Ref, error) {
	ref.Kind = Kind(strings.ToLower(strings.TrimSpace(string(ref.Kind))))
	ref.ID = strings.TrimSpace(ref.ID)

	reg, ok := r.kinds[ref.Kind]
	if !ok {
		return Ref{}, fmt.Errorf("%w: %q", ErrInvalidKind, ref.Kind)
	}
	if ref.ID == "" {
		return Ref{}, fmt.Errorf("%w: missing object id", ErrDanglingReference)
	}
	found, err := reg.resolve(ctx, ref.ID)
	if err != nil {
		return Ref{}, fmt.Errorf("resolve %s: %w", ref, err)
	}
	if !found {
		return Ref{}, fmt.Errorf("%w: %s", ErrDanglingReference, ref)
	}
	return Ref{Kind: reg.canonical, ID: ref.ID}, nil
}
