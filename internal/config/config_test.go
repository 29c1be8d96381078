package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, c.Port)
	assert.Equal(t, "postgres", c.DatabaseDriver)
	assert.Equal(t, 8, c.SlugMaxAttempts)
	assert.Equal(t, 30*24*time.Hour, c.TokenTTL)
	assert.False(t, c.TrustProxy)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flixcatalog.toml")
	body := `
port = 9000
database_driver = "sqlite3"
database_url = "file.db"
token_ttl = "2h"
slug_max_attempts = 3
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	t.Setenv("PORT", "9100")
	t.Setenv("TOKEN_TTL", "90m")
	t.Setenv("TRUST_PROXY", "true")

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, c.Port)
	assert.Equal(t, "sqlite3", c.DatabaseDriver)
	assert.Equal(t, "file.db", c.DatabaseURL)
	assert.Equal(t, 90*time.Minute, c.TokenTTL)
	assert.Equal(t, 3, c.SlugMaxAttempts)
	assert.True(t, c.TrustProxy)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "mysql")

	_, err := Load("")
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
