package search

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JustinTDCT/flixcatalog/internal/content"
	"github.com/JustinTDCT/flixcatalog/internal/db/dbtest"
	"github.com/JustinTDCT/flixcatalog/internal/playlists"
	"github.com/JustinTDCT/flixcatalog/internal/users"
)

func seedVideo(t *testing.T, db *sql.DB, owner, title string, state content.PublishState, active bool) {
	t.Helper()
	now := content.Now()
	var published *time.Time
	if state == content.StatePublish {
		p := now.Add(-time.Minute)
		published = &p
	}
	id := uuid.NewString()
	_, err := db.Exec(`
		INSERT INTO videos (id, user_id, title, slug, video_id, active, state, published_timestamp, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		id, owner, title, content.Slugify(title), "ext-"+id, active, state, published, now, now)
	require.NoError(t, err)
}

func TestTitles(t *testing.T) {
	ctx := context.Background()
	d := dbtest.Open(t)

	u, err := users.New("search@example.com", "", "hash")
	require.NoError(t, err)
	require.NoError(t, users.NewRepository(d.DB).Create(ctx, u))

	seedVideo(t, d.DB, u.ID, "Space Walk", content.StatePublish, true)
	seedVideo(t, d.DB, u.ID, "Space Draft", content.StateDraft, true)
	seedVideo(t, d.DB, u.ID, "Space Hidden", content.StatePublish, false)
	seedVideo(t, d.DB, u.ID, "100% Space_Odyssey", content.StatePublish, true)

	repo := playlists.NewRepository(d.DB, content.NewDeriver(content.NewSlugGenerator(8)))
	show := &playlists.Playlist{Title: "Deep SPACE Nine", Active: true, Publishing: content.Publishing{State: content.StatePublish}}
	require.NoError(t, repo.Shows().Create(ctx, show))

	found, err := Titles(ctx, d.DB, "space", 10)
	require.NoError(t, err)
	titles := make([]string, 0, len(found))
	for _, r := range found {
		titles = append(titles, r.Title)
	}
	assert.Equal(t, []string{"100% Space_Odyssey", "Deep SPACE Nine", "Space Walk"}, titles)
	assert.Equal(t, content.KindPlaylist, found[1].Ref.Kind)
	assert.Equal(t, content.TypeShow, found[1].Type)
	assert.Equal(t, content.KindVideo, found[2].Ref.Kind)

	found, err = Titles(ctx, d.DB, "0%", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "100% Space_Odyssey", found[0].Title)

	found, err = Titles(ctx, d.DB, "e_o", 10)
	require.NoError(t, err)
	require.Len(t, found, 1, "underscore matches literally")

	found, err = Titles(ctx, d.DB, "space", 1)
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestHandlerRequiresQuery(t *testing.T) {
	h := NewHandler(dbtest.Open(t).DB).Router()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?q=", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?q=anything&limit=500", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data struct {
			Total int `json:"total"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Zero(t, body.Data.Total)
}
