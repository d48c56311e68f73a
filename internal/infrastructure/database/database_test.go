package database

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(Config{
		Path:        filepath.Join(t.TempDir(), "test.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // test cleanup
	return db
}

func useMigrations(t *testing.T, fsys fs.FS, dir string) {
	t.Helper()
	origFS, origDir := MigrationsFS, MigrationsDir
	t.Cleanup(func() {
		MigrationsFS = origFS
		MigrationsDir = origDir
	})
	MigrationsFS = fsys
	MigrationsDir = dir
}

func TestOpen_CreatesNestedDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".iotdb", "nested", "keystore.db")

	db, err := Open(Config{Path: path, BusyTimeout: 1})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close() //nolint:errcheck // test cleanup

	if _, err := os.Stat(filepath.Dir(path)); err != nil {
		t.Errorf("database directory was not created: %v", err)
	}
	if db.Path() != path {
		t.Errorf("Path() = %q, want %q", db.Path(), path)
	}
}

func TestHealthCheck(t *testing.T) {
	db := openTestDB(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

func TestClose_Nil(t *testing.T) {
	var db *DB
	if err := db.Close(); err != nil {
		t.Errorf("Close() on nil = %v", err)
	}
}

func TestMigrate_AppliesInOrderOnce(t *testing.T) {
	useMigrations(t, fstest.MapFS{
		"m/20260102_000000_extra.up.sql": {Data: []byte("ALTER TABLE docs ADD COLUMN updated_at TEXT;")},
		"m/20260101_000000_docs.up.sql":  {Data: []byte("CREATE TABLE docs (key TEXT PRIMARY KEY, value TEXT);")},
		"m/README.md":                    {Data: []byte("ignored")},
	}, "m")

	db := openTestDB(t)
	ctx := context.Background()

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}

	if _, err := db.ExecContext(ctx, "INSERT INTO docs (key, value, updated_at) VALUES ('a', 'b', 'c')"); err != nil {
		t.Fatalf("migrated schema unusable: %v", err)
	}

	pending, err := db.Pending(ctx)
	if err != nil {
		t.Fatalf("Pending() error = %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("expected no pending migrations, got %d", len(pending))
	}
}

func TestMigrate_FailureStopsRun(t *testing.T) {
	useMigrations(t, fstest.MapFS{
		"20260101_000000_ok.up.sql":     {Data: []byte("CREATE TABLE ok (id INTEGER);")},
		"20260102_000000_broken.up.sql": {Data: []byte("CREATE TABLE;")},
	}, ".")

	db := openTestDB(t)
	ctx := context.Background()

	if err := db.Migrate(ctx); err == nil {
		t.Fatal("expected Migrate() to fail")
	}

	pending, err := db.Pending(ctx)
	if err != nil {
		t.Fatalf("Pending() error = %v", err)
	}
	if len(pending) != 1 || pending[0].Name != "broken" {
		t.Errorf("pending = %+v, want only the broken migration", pending)
	}
}

func TestMigrate_NoMigrations(t *testing.T) {
	useMigrations(t, nil, ".")

	db := openTestDB(t)
	if err := db.Migrate(context.Background()); err != nil {
		t.Errorf("Migrate() with no migrations error = %v", err)
	}
}

func TestLoadMigrations_Testdata(t *testing.T) {
	migrations, err := loadMigrations(os.DirFS("testdata"), ".")
	if err != nil {
		t.Fatalf("loadMigrations() error = %v", err)
	}
	if len(migrations) != 2 {
		t.Fatalf("expected 2 migrations, got %d", len(migrations))
	}
	if migrations[0].Version != "20260101_000000" || migrations[1].Version != "20260102_000000" {
		t.Errorf("migrations not sorted: %s, %s", migrations[0].Version, migrations[1].Version)
	}
}

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		filename    string
		wantVersion string
		wantName    string
		wantOK      bool
	}{
		{"20260118_120000_keystore.up.sql", "20260118_120000", "keystore", true},
		{"20260118_120000_add_index.up.sql", "20260118_120000", "add_index", true},
		{"20260118_120000.up.sql", "20260118_120000", "", true},
		{"20260118_120000_keystore.down.sql", "", "", false},
		{"20260118.up.sql", "", "", false},
		{"notes.txt", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			version, name, ok := parseMigrationFilename(tt.filename)
			if ok != tt.wantOK || version != tt.wantVersion || name != tt.wantName {
				t.Errorf("parseMigrationFilename(%q) = (%q, %q, %v), want (%q, %q, %v)",
					tt.filename, version, name, ok, tt.wantVersion, tt.wantName, tt.wantOK)
			}
		})
	}
}
