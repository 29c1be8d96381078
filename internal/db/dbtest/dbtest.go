// Package dbtest opens migrated throwaway databases for repository tests.
package dbtest

import (
	"path/filepath"
	"testing"

	"github.com/JustinTDCT/flixcatalog/internal/db"
)

// Open returns a migrated SQLite database living in the test's temp dir.
func Open(t testing.TB) *db.DB {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "flixcatalog.db") + "?_foreign_keys=on&_busy_timeout=5000"
	d, err := db.Connect(db.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { d.Close() })

	if err := db.Migrate(d); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return d
}
