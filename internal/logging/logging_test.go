package logging

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })

	var buf bytes.Buffer
	log.Logger = zerolog.New(&buf)
	return &buf
}

func TestAccessLogRecordsUserAndStatus(t *testing.T) {
	buf := captureLog(t)

	h := AccessLog()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		SetUserID(r.Context(), "user-1")
		w.WriteHeader(http.StatusNotFound)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/videos/x", nil))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "warn", line["level"])
	assert.Equal(t, "user-1", line["user_id"])
	assert.Equal(t, "/api/videos/x", line["path"])
	assert.EqualValues(t, 404, line["status"])
}

func TestAccessLogDefaultsToOK(t *testing.T) {
	buf := captureLog(t)

	h := AccessLog()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "info", line["level"])
	assert.EqualValues(t, 200, line["status"])
	assert.Equal(t, "", line["user_id"])
}

func TestSetUserIDOutsideAccessLog(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.NotPanics(t, func() { SetUserID(req.Context(), "ignored") })
}

func TestSetupLevel(t *testing.T) {
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })

	logger := Setup(Options{Level: "debug", File: filepath.Join(t.TempDir(), "app.log")})
	assert.Equal(t, zerolog.DebugLevel, logger.GetLevel())

	logger = Setup(Options{Level: "nonsense"})
	assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())
}
