package sqlitemigrate

import (
	"database/sql"
	"path/filepath"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "migrate.db")
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open sqlite db: %v", err)
	}
	t.Cleanup(func() {
		if err := sqlDB.Close(); err != nil {
			t.Fatalf("close sqlite db: %v", err)
		}
	})
	return sqlDB
}

func TestApplyMigrationsOnce(t *testing.T) {
	sqlDB := openTestDB(t)
	migrationFS := fstest.MapFS{
		"0001_notes.sql": &fstest.MapFile{Data: []byte(`
-- +migrate Up
CREATE TABLE notes (id TEXT PRIMARY KEY, title TEXT NOT NULL);
-- +migrate Down
DROP TABLE notes;
`)},
	}

	if err := ApplyMigrations(sqlDB, migrationFS, ""); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	// Re-applying must be a no-op.
	if err := ApplyMigrations(sqlDB, migrationFS, ""); err != nil {
		t.Fatalf("re-apply migrations: %v", err)
	}

	if _, err := sqlDB.Exec("INSERT INTO notes (id, title) VALUES ('n1', 'hello')"); err != nil {
		t.Fatalf("insert into migrated table: %v", err)
	}

	var applied int
	if err := sqlDB.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&applied); err != nil {
		t.Fatalf("count applied migrations: %v", err)
	}
	if applied != 1 {
		t.Fatalf("applied migrations = %d, want 1", applied)
	}
}

func TestApplyMigrationsOrdersFiles(t *testing.T) {
	sqlDB := openTestDB(t)
	migrationFS := fstest.MapFS{
		"0002_add_column.sql": &fstest.MapFile{Data: []byte(`
-- +migrate Up
ALTER TABLE notes ADD COLUMN body TEXT NOT NULL DEFAULT '';
`)},
		"0001_notes.sql": &fstest.MapFile{Data: []byte(`
-- +migrate Up
CREATE TABLE notes (id TEXT PRIMARY KEY);
`)},
	}

	if err := ApplyMigrations(sqlDB, migrationFS, ""); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	if _, err := sqlDB.Exec("INSERT INTO notes (id, body) VALUES ('n1', 'text')"); err != nil {
		t.Fatalf("insert with migrated column: %v", err)
	}
}

func TestExtractUpMigration(t *testing.T) {
	content := `-- +migrate Up
CREATE TABLE a (id TEXT);
-- +migrate Down
DROP TABLE a;`
	up := ExtractUpMigration(content)
	if up != "\nCREATE TABLE a (id TEXT);\n" {
		t.Fatalf("unexpected up migration: %q", up)
	}

	bare := "CREATE TABLE b (id TEXT);"
	if ExtractUpMigration(bare) != bare {
		t.Fatal("expected bare content returned unchanged")
	}
}
