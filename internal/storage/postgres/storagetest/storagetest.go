// Package storagetest opens throwaway sqlite databases with the tracking schema.
package storagetest

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/hieu03092004/CameraTrackingBE/internal/storage/postgres"
	"github.com/hieu03092004/CameraTrackingBE/migrations"
)

func NewSQLite(t testing.TB) *sqlx.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "tracking.db")

	db, err := postgres.Open(postgres.DriverSQLite, path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ups, err := fs.Glob(migrations.FS, "sqlite/*.up.sql")
	if err != nil {
		t.Fatalf("list migrations: %v", err)
	}
	sort.Strings(ups)

	for _, name := range ups {
		body, err := fs.ReadFile(migrations.FS, name)
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}

		for _, stmt := range strings.Split(string(body), ";") {
			if strings.TrimSpace(stmt) == "" {
				continue
			}

			if _, err := db.Exec(stmt); err != nil {
				t.Fatalf("apply %s: %v", name, err)
			}
		}
	}

	return db
}
