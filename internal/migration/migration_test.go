package migration

import (
	"database/sql"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestApply(t *testing.T) {
	db := openTestDB(t)
	migrations := fstest.MapFS{
		"001_init.sql":  {Data: []byte("CREATE TABLE habits (id TEXT PRIMARY KEY);")},
		"002_extra.sql": {Data: []byte("ALTER TABLE habits ADD COLUMN name TEXT;")},
		"README.md":     {Data: []byte("not a migration")},
	}
	runner := NewRunner(db, migrations, SQLite)

	var messages []string
	applied, err := runner.Apply(func(msg string) { messages = append(messages, msg) })
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if applied != 2 {
		t.Errorf("Apply() applied %d migrations, want 2", applied)
	}
	if len(messages) == 0 {
		t.Error("Apply() did not report progress")
	}

	version, err := runner.CurrentVersion()
	if err != nil {
		t.Fatalf("CurrentVersion() error = %v", err)
	}
	if version != 2 {
		t.Errorf("CurrentVersion() = %d, want 2", version)
	}

	// Second run is a no-op
	applied, err = runner.Apply(nil)
	if err != nil {
		t.Fatalf("second Apply() error = %v", err)
	}
	if applied != 0 {
		t.Errorf("second Apply() applied %d migrations, want 0", applied)
	}
}

func TestApplyRollsBackFailedMigration(t *testing.T) {
	db := openTestDB(t)
	migrations := fstest.MapFS{
		"001_init.sql":   {Data: []byte("CREATE TABLE habits (id TEXT PRIMARY KEY);")},
		"002_broken.sql": {Data: []byte("ALTER TABLE missing ADD COLUMN x TEXT;")},
	}
	runner := NewRunner(db, migrations, SQLite)

	applied, err := runner.Apply(nil)
	if err == nil {
		t.Fatal("Apply() succeeded with a broken migration")
	}
	if applied != 1 {
		t.Errorf("Apply() applied %d migrations before failing, want 1", applied)
	}
	version, _ := runner.CurrentVersion()
	if version != 1 {
		t.Errorf("CurrentVersion() = %d after failure, want 1", version)
	}
}

func TestMigrationsRejectsBadFilenames(t *testing.T) {
	tests := []struct {
		name  string
		files fstest.MapFS
	}{
		{"missing underscore", fstest.MapFS{"001init.sql": {Data: []byte("")}}},
		{"non numeric version", fstest.MapFS{"abc_init.sql": {Data: []byte("")}}},
		{"zero version", fstest.MapFS{"000_init.sql": {Data: []byte("")}}},
		{"duplicate version", fstest.MapFS{
			"001_a.sql": {Data: []byte("")},
			"001_b.sql": {Data: []byte("")},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := NewRunner(nil, tt.files, SQLite)
			if _, err := runner.Migrations(); err == nil {
				t.Error("Migrations() succeeded, want error")
			}
		})
	}
}

func TestValidateNewerSchema(t *testing.T) {
	db := openTestDB(t)
	runner := NewRunner(db, fstest.MapFS{
		"001_init.sql": {Data: []byte("CREATE TABLE habits (id TEXT);")},
	}, SQLite)

	if _, err := runner.Apply(nil); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if err := runner.Validate(); err != nil {
		t.Errorf("Validate() error = %v for current schema", err)
	}

	if _, err := db.Exec("UPDATE schema_version SET version = 9"); err != nil {
		t.Fatalf("failed to bump version: %v", err)
	}
	err := runner.Validate()
	if err == nil || !strings.Contains(err.Error(), "newer than supported") {
		t.Errorf("Validate() error = %v, want newer schema error", err)
	}
}
