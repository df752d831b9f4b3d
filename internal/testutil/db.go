package testutil

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/allears/helpdesk/pkg/hd/migrate"
)

// NewTestDB creates a new in-memory SQLite database with all migrations applied.
func NewTestDB() (*sql.DB, error) {
	db, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}
	// a second pooled connection would see a different, empty database
	db.SetMaxOpenConns(1)

	if err := ApplyMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("cannot apply migrations: %w", err)
	}

	return db, nil
}

// ApplyMigrations applies the Up section of every SQL migration to the database.
func ApplyMigrations(db *sql.DB) error {
	dir := MigrationsDir()
	if dir == "" {
		return fmt.Errorf("migrations directory not found")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("cannot read migrations directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		content, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("cannot read migration %s: %w", name, err)
		}

		mig, err := migrate.Parse(name, string(content))
		if err != nil {
			return err
		}

		if _, err := db.Exec(mig.Up); err != nil {
			return fmt.Errorf("cannot execute migration %s: %w", name, err)
		}
	}

	return nil
}

// MigrationsDir walks up from the working directory looking for the SQLite migrations.
func MigrationsDir() string {
	return findUp("assets/migrations/sqlite")
}

// AssetsDir returns the repository assets directory, or empty if not found.
func AssetsDir() string {
	return findUp("assets")
}

func findUp(rel string) string {
	prefix := ""
	for i := 0; i < 6; i++ {
		p := filepath.Join(prefix, rel)
		if _, err := os.Stat(p); err == nil {
			return p
		}
		prefix = filepath.Join(prefix, "..")
	}
	return ""
}

// TestDBProvider implements DBProvider for testing.
type TestDBProvider struct {
	DB *sql.DB
}

func (p *TestDBProvider) GetDB() *sql.DB {
	return p.DB
}

// RootDir returns the repository root, the directory holding assets/.
func RootDir() string {
	dir := AssetsDir()
	if dir == "" {
		return ""
	}
	return filepath.Dir(dir)
}
