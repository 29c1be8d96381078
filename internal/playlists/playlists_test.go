package playlists

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JustinTDCT/flixcatalog/internal/content"
	"github.com/JustinTDCT/flixcatalog/internal/db/dbtest"
	"github.com/JustinTDCT/flixcatalog/internal/ratings"
	"github.com/JustinTDCT/flixcatalog/internal/tags"
	"github.com/JustinTDCT/flixcatalog/internal/users"
)

type fixture struct {
	db     *sql.DB
	repo   *Repository
	userID string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	d := dbtest.Open(t)
	u, err := users.New("owner@example.com", "Owner", "hash")
	require.NoError(t, err)
	require.NoError(t, users.NewRepository(d.DB).Create(context.Background(), u))
	return &fixture{
		db:     d.DB,
		repo:   NewRepository(d.DB, content.NewDeriver(content.NewSlugGenerator(8))),
		userID: u.ID,
	}
}

// video inserts a published video row directly.
func (f *fixture) video(t *testing.T, title string) string {
	t.Helper()
	id := uuid.NewString()
	now := content.Now()
	_, err := f.db.Exec(`
		INSERT INTO videos (id, user_id, title, slug, video_id, active, state, published_timestamp, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		id, f.userID, title, content.Slugify(title), "ext-"+id, true, content.StatePublish, now.Add(-time.Minute), now, now)
	require.NoError(t, err)
	return id
}

func (f *fixture) create(t *testing.T, p *Playlist) *Playlist {
	t.Helper()
	p.Active = true
	require.NoError(t, f.repo.Create(context.Background(), p))
	return p
}

func strp(s string) *string { return &s }

func TestProjectionForcesDiscriminator(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	movie := &Playlist{Title: "X", Type: content.TypeShow, Active: true}
	require.NoError(t, f.repo.Movies().Create(ctx, movie))
	assert.Equal(t, content.TypeMovie, movie.Type)

	movies, err := f.repo.Movies().All(ctx)
	require.NoError(t, err)
	require.Len(t, movies, 1)
	assert.Equal(t, movie.ID, movies[0].ID)

	shows, err := f.repo.Shows().All(ctx)
	require.NoError(t, err)
	assert.Empty(t, shows)

	ok, err := f.repo.Shows().Exists(ctx, movie.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = f.repo.Shows().Get(ctx, movie.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSeasonsRequireParent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	show := &Playlist{Title: "The Show", Active: true}
	require.NoError(t, f.repo.Shows().Create(ctx, show))

	season := &Playlist{Title: "Season 1", ParentID: &show.ID, Active: true}
	require.NoError(t, f.repo.Seasons().Create(ctx, season))

	orphan := &Playlist{Title: "Loose season", Active: true}
	require.NoError(t, f.repo.Seasons().Create(ctx, orphan))

	f.create(t, &Playlist{Title: "Top level playlist"})

	seasons, err := f.repo.Seasons().All(ctx)
	require.NoError(t, err)
	require.Len(t, seasons, 1)
	assert.Equal(t, season.ID, seasons[0].ID)
}

func TestSlugUniqueWithinParent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	a := &Playlist{Title: "Show A"}
	b := &Playlist{Title: "Show B"}
	require.NoError(t, f.repo.Shows().Create(ctx, a))
	require.NoError(t, f.repo.Shows().Create(ctx, b))

	s1 := &Playlist{Title: "Season 1", ParentID: &a.ID}
	s2 := &Playlist{Title: "Season 1", ParentID: &b.ID}
	s3 := &Playlist{Title: "Season 1", ParentID: &a.ID}
	for _, s := range []*Playlist{s1, s2, s3} {
		require.NoError(t, f.repo.Seasons().Create(ctx, s))
	}

	assert.Equal(t, "season-1", s1.Slug)
	assert.Equal(t, "season-1", s2.Slug, "different parents do not collide")
	assert.NotEqual(t, s1.Slug, s3.Slug)
	assert.True(t, strings.HasPrefix(s3.Slug, "season-1"))

	top := f.create(t, &Playlist{Title: "Season 1"})
	assert.Equal(t, "season-1", top.Slug, "top-level rows share their own scope")
}

func TestMovingToNewParentKeepsSiblingSlugsUnique(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	a := &Playlist{Title: "Show A"}
	b := &Playlist{Title: "Show B"}
	require.NoError(t, f.repo.Shows().Create(ctx, a))
	require.NoError(t, f.repo.Shows().Create(ctx, b))

	stay := &Playlist{Title: "Season 1", ParentID: &a.ID}
	moving := &Playlist{Title: "Season 1", ParentID: &b.ID}
	other := &Playlist{Title: "Specials", ParentID: &b.ID}
	for _, s := range []*Playlist{stay, moving, other} {
		require.NoError(t, f.repo.Seasons().Create(ctx, s))
	}
	require.Equal(t, stay.Slug, moving.Slug)

	moving.ParentID = &a.ID
	require.NoError(t, f.repo.Update(ctx, moving))
	assert.NotEqual(t, stay.Slug, moving.Slug)
	assert.True(t, strings.HasPrefix(moving.Slug, "season-1"))

	other.ParentID = &a.ID
	require.NoError(t, f.repo.Update(ctx, other))
	assert.Equal(t, "specials", other.Slug, "a free slug survives the move")

	stored, err := f.repo.Get(ctx, moving.ID)
	require.NoError(t, err)
	assert.Equal(t, moving.Slug, stored.Slug)
}

func TestPublishStateLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	p := f.create(t, &Playlist{Title: "Lifecycle", Publishing: content.Publishing{State: content.StatePublish}})
	require.NotNil(t, p.PublishedAt)
	first := *p.PublishedAt

	p.Title = "Lifecycle renamed"
	require.NoError(t, f.repo.Update(ctx, p))
	got, err := f.repo.Get(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got.PublishedAt)
	assert.True(t, first.Equal(*got.PublishedAt))

	got.State = content.StateDraft
	require.NoError(t, f.repo.Update(ctx, got))
	got, err = f.repo.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, got.PublishedAt)

	bad := &Playlist{Title: "Bad", Publishing: content.Publishing{State: "XX"}}
	assert.ErrorIs(t, f.repo.Create(ctx, bad), content.ErrInvalidState)
}

func TestPublishedExcludesDraftsAndFuture(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	live := f.create(t, &Playlist{Title: "Live", Publishing: content.Publishing{State: content.StatePublish}})
	f.create(t, &Playlist{Title: "Draft"})
	future := f.create(t, &Playlist{Title: "Future", Publishing: content.Publishing{State: content.StatePublish}})
	_, err := f.db.Exec("UPDATE playlists SET published_timestamp=$1 WHERE id=$2", content.Now().Add(time.Hour), future.ID)
	require.NoError(t, err)

	published, err := f.repo.Published(ctx)
	require.NoError(t, err)
	require.Len(t, published, 1)
	assert.Equal(t, live.ID, published[0].ID)

	featured, err := f.repo.FeaturedPlaylists(ctx)
	require.NoError(t, err)
	assert.Len(t, featured, 1)

	all, err := f.repo.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestShowSeasonsAndShortDisplay(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	pub := content.Publishing{State: content.StatePublish}

	show := &Playlist{Title: "Breaking Bad", Publishing: pub}
	require.NoError(t, f.repo.Shows().Create(ctx, show))
	for i, state := range []content.PublishState{content.StatePublish, content.StatePublish, content.StateDraft} {
		s := &Playlist{Title: "Season", ParentID: &show.ID, Order: i + 1, Publishing: content.Publishing{State: state}}
		require.NoError(t, f.repo.Seasons().Create(ctx, s))
	}

	seasons, err := f.repo.ShowSeasons(ctx, show.ID)
	require.NoError(t, err)
	assert.Len(t, seasons, 2)
	assert.Equal(t, 1, seasons[0].Order)

	display, err := f.repo.ShortDisplay(ctx, show)
	require.NoError(t, err)
	assert.Equal(t, "Breaking Bad (2 seasons)", display)
}

func TestGetBySlugAndSeasonBySlugs(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	pub := content.Publishing{State: content.StatePublish}

	show := &Playlist{Title: "The Wire", Publishing: pub}
	require.NoError(t, f.repo.Shows().Create(ctx, show))

	got, err := f.repo.Shows().GetBySlug(ctx, "THE-WIRE")
	require.NoError(t, err)
	assert.Equal(t, show.ID, got.ID)

	_, err = f.repo.Movies().GetBySlug(ctx, "the-wire")
	assert.ErrorIs(t, err, ErrNotFound)

	// Two seasons forced onto the same slug under one show.
	first := &Playlist{Title: "Season 1", ParentID: &show.ID, Order: 1, Publishing: pub}
	second := &Playlist{Title: "Season 1 again", Slug: "season-1", ParentID: &show.ID, Order: 2, Publishing: pub}
	require.NoError(t, f.repo.Seasons().Create(ctx, first))
	require.NoError(t, f.repo.Seasons().Create(ctx, second))
	require.Equal(t, first.Slug, second.Slug)

	season, err := f.repo.SeasonBySlugs(ctx, "the-wire", "Season-1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, season.ID)

	_, err = f.repo.SeasonBySlugs(ctx, "other-show", "season-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestItemsOrderAndCascade(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	p := f.create(t, &Playlist{Title: "Mix"})
	v1, v2, v3 := f.video(t, "One"), f.video(t, "Two"), f.video(t, "Three")

	require.NoError(t, f.repo.SetVideos(ctx, p.ID, []string{v2, v1, v2, v3}))
	items, err := f.repo.Videos(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, []string{v2, v1, v3}, []string{items[0].ID, items[1].ID, items[2].ID})

	err = f.repo.SetVideos(ctx, p.ID, []string{"ghost"})
	assert.ErrorIs(t, err, ErrUnknownVideo)
	items, err = f.repo.Videos(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, items, 3, "failed replace rolls back")

	assert.ErrorIs(t, f.repo.SetVideos(ctx, "missing", nil), ErrNotFound)

	_, err = f.db.Exec("DELETE FROM videos WHERE id=$1", v1)
	require.NoError(t, err)
	items, err = f.repo.Videos(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	in, err := f.repo.ForVideo(ctx, v2)
	require.NoError(t, err)
	require.Len(t, in, 1)
	assert.Equal(t, p.ID, in[0].ID)
}

func TestItemsTieBreakNewestFirst(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	p := f.create(t, &Playlist{Title: "Ties"})
	older, newer := f.video(t, "Older"), f.video(t, "Newer")
	base := content.Now()
	for i, v := range []string{older, newer} {
		_, err := f.db.Exec(`INSERT INTO playlist_items (id, playlist_id, video_id, sort_order, created_at)
			VALUES ($1, $2, $3, $4, $5)`, uuid.NewString(), p.ID, v, 1, base.Add(time.Duration(i)*time.Second))
		require.NoError(t, err)
	}

	items, err := f.repo.Videos(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, newer, items[0].ID)
}

func TestGetOrCreateByTitle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	p, created, err := f.repo.GetOrCreateByTitle(ctx, f.db, "Favourites")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, content.TypePlaylist, p.Type)
	assert.Equal(t, content.StateDraft, p.State)

	again, created, err := f.repo.GetOrCreateByTitle(ctx, f.db, "Favourites")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, p.ID, again.ID)

	// A movie with the same title is not a match.
	require.NoError(t, f.repo.Movies().Create(ctx, &Playlist{Title: "Watch Later"}))
	_, created, err = f.repo.GetOrCreateByTitle(ctx, f.db, "Watch Later")
	require.NoError(t, err)
	assert.True(t, created)
}

func TestDeleteCleansUpReferences(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	reg := content.NewRegistry()
	reg.Register(content.KindPlaylist, f.repo.Exists)
	tagRepo := tags.NewRepository(f.db, reg)
	ratingRepo := ratings.NewRepository(f.db, reg)

	parent := f.create(t, &Playlist{Title: "Parent"})
	child := f.create(t, &Playlist{Title: "Child", ParentID: &parent.ID})
	require.NoError(t, tagRepo.Create(ctx, &tags.TaggedItem{Tag: "x", Ref: parent.Ref()}))
	five := 5
	require.NoError(t, ratingRepo.Create(ctx, &ratings.Rating{UserID: f.userID, Value: &five, Ref: parent.Ref()}))

	require.NoError(t, f.repo.Delete(ctx, parent.ID))
	assert.ErrorIs(t, f.repo.Delete(ctx, parent.ID), ErrNotFound)

	got, err := f.repo.Get(ctx, child.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ParentID)

	left, err := tagRepo.List(ctx, tags.Filter{})
	require.NoError(t, err)
	assert.Empty(t, left)
	s, err := ratingRepo.Summarize(ctx, parent.Ref())
	require.NoError(t, err)
	assert.Zero(t, s.Count)
}

func TestCreateRejectsUnknownParent(t *testing.T) {
	f := newFixture(t)
	err := f.repo.Create(context.Background(), &Playlist{Title: "Orphan", ParentID: strp("ghost")})
	assert.ErrorIs(t, err, ErrInvalidReference)
}

func TestHandler(t *testing.T) {
	f := newFixture(t)
	router := NewHandler(f.repo).Router()
	do := func(method, path, body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
		return rec
	}

	rec := do(http.MethodPost, "/", `{"title":"Road Trip","state":"PU"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"slug":"road-trip"`)
	assert.NotContains(t, rec.Body.String(), `"published_timestamp":null`)

	rec = do(http.MethodPost, "/", `{"title":"Bad","state":"ZZ"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(http.MethodPost, "/", `{"title":"Bad","type":"ZZZ"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	all, err := f.repo.All(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	id := all[0].ID

	rec = do(http.MethodPatch, "/"+id, `{"state":"DR"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"published_timestamp":null`)

	rec = do(http.MethodPut, "/"+id, `{"description":"no title"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	v := f.video(t, "Clip")
	rec = do(http.MethodPut, "/"+id+"/videos", `{"videos":["`+v+`"]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), v)

	rec = do(http.MethodGet, "/missing/videos", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(http.MethodDelete, "/"+id, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
