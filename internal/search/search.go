package search

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JustinTDCT/flixcatalog/internal/content"
	"github.com/JustinTDCT/flixcatalog/internal/httputil"
)

const (
	defaultLimit = 25
	maxLimit     = 100
)

// Result is one published, active video or playlist whose title matched.
type Result struct {
	content.Ref
	Title string               `json:"title"`
	Slug  string               `json:"slug"`
	Type  content.PlaylistType `json:"type,omitempty"`
}

type Handler struct {
	db *sql.DB
}

func NewHandler(db *sql.DB) *Handler {
	return &Handler{db: db}
}

func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.search)
	return r
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Titles matches query as a case-insensitive substring of video and
// playlist titles, ordered by title.
func Titles(ctx context.Context, db *sql.DB, query string, limit int) ([]Result, error) {
	pattern := "%" + likeEscaper.Replace(strings.ToLower(query)) + "%"
	rows, err := db.QueryContext(ctx, `
		SELECT 'video', id, title, slug, '' FROM videos
		WHERE LOWER(title) LIKE $1 ESCAPE '\' AND active = $2
		  AND state = $3 AND published_timestamp IS NOT NULL AND published_timestamp <= $4
		UNION ALL
		SELECT 'playlist', id, title, slug, type FROM playlists
		WHERE LOWER(title) LIKE $1 ESCAPE '\' AND active = $2
		  AND state = $3 AND published_timestamp IS NOT NULL AND published_timestamp <= $4
		ORDER BY 3, 2
		LIMIT $5`,
		pattern, true, content.StatePublish, content.Now(), limit)
	if err != nil {
		return nil, fmt.Errorf("search titles: %w", err)
	}
	defer rows.Close()

	out := []Result{}
	for rows.Next() {
		var res Result
		if err := rows.Scan(&res.Ref.Kind, &res.Ref.ID, &res.Title, &res.Slug, &res.Type); err != nil {
			return nil, fmt.Errorf("scan search result: %w", err)
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		httputil.WriteError(w, http.StatusBadRequest, "MISSING_QUERY", "q parameter required")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = defaultLimit
	}
	limit = min(limit, maxLimit)

	results, err := Titles(r.Context(), h.db, query, limit)
	if err != nil {
		httputil.WriteInternal(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"results": results,
		"total":   len(results),
	})
}
