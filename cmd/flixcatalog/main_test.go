package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSuperuserLifecycle(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "sqlite3")
	t.Setenv("DATABASE_URL", "file:"+filepath.Join(t.TempDir(), "cli.db")+"?_foreign_keys=on")
	t.Setenv("LOG_LEVEL", "error")

	_, err := runCLI(t, "migrate", "up")
	require.NoError(t, err)

	out, err := runCLI(t, "createsuperuser", "--email", "root@Example.COM", "--password", "hunter2hunter2")
	require.NoError(t, err)
	assert.Contains(t, out, "Superuser root@example.com created")

	_, err = runCLI(t, "createsuperuser", "--email", "root@example.com", "--password", "hunter2hunter2")
	assert.Error(t, err, "duplicate email")

	_, err = runCLI(t, "createsuperuser", "--email", "weak@example.com", "--password", "short")
	assert.Error(t, err)

	out, err = runCLI(t, "users", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "root@example.com")
	assert.Contains(t, out, "superuser,staff")
	assert.Contains(t, out, "never")

	out, err = runCLI(t, "users", "delete", "--email", "root@EXAMPLE.com")
	require.NoError(t, err)
	assert.Contains(t, out, "User root@example.com deleted")

	_, err = runCLI(t, "users", "delete", "--email", "root@example.com")
	assert.Error(t, err)

	out, err = runCLI(t, "users", "list")
	require.NoError(t, err)
	assert.NotContains(t, out, "root@example.com")
}

func TestCreateSuperuserRequiresFlags(t *testing.T) {
	_, err := runCLI(t, "createsuperuser", "--email", "x@example.com")
	assert.Error(t, err)
}

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable([]string{"A", "B"}, [][]string{{"only"}})
	assert.Contains(t, out, "only")
	assert.Contains(t, out, "A")
}
