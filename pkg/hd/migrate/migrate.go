package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/allears/helpdesk/pkg/hd/logger"
	"github.com/google/uuid"
)

const (
	upMarker   = "-- +migrate Up"
	downMarker = "-- +migrate Down"
)

// Migration is one versioned schema change read from a "<datetime>-<name>.sql" file.
type Migration struct {
	Datetime string
	Name     string
	Up       string
	Down     string
}

// Key identifies a migration in the tracking table.
func (m Migration) Key() string {
	return m.Datetime + "-" + m.Name
}

// Migrator applies pending migrations and records them in schema_migrations.
type Migrator struct {
	db       *sql.DB
	log      logger.Logger
	assetsFS fs.FS
	engine   string
	path     string
}

// New creates a new Migrator reading from assetsFS.
func New(assetsFS fs.FS, engine string, log logger.Logger) *Migrator {
	return &Migrator{
		assetsFS: assetsFS,
		engine:   engine,
		log:      log,
	}
}

// SetDB sets the database connection.
func (m *Migrator) SetDB(db *sql.DB) {
	m.db = db
}

// SetPath sets a custom migration path.
func (m *Migrator) SetPath(path string) {
	m.path = path
}

// Run executes pending migrations in datetime order, each in its own transaction.
func (m *Migrator) Run(ctx context.Context) error {
	if err := m.ensureTable(ctx); err != nil {
		return fmt.Errorf("cannot create migrations table: %w", err)
	}

	files, err := m.Load()
	if err != nil {
		return fmt.Errorf("cannot load file migrations: %w", err)
	}

	applied, err := m.Applied(ctx)
	if err != nil {
		return fmt.Errorf("cannot load applied migrations: %w", err)
	}

	done := make(map[string]bool, len(applied))
	for _, key := range applied {
		done[key] = true
	}

	var pending []Migration
	for _, mig := range files {
		if !done[mig.Key()] {
			pending = append(pending, mig)
		}
	}

	if len(pending) == 0 {
		m.log.Debug("No pending migrations")
		return nil
	}

	m.log.Infof("Running %d pending migration(s)", len(pending))
	for _, mig := range pending {
		if err := m.apply(ctx, mig); err != nil {
			return fmt.Errorf("migration %s failed: %w", mig.Key(), err)
		}
		m.log.Infof("Applied migration: %s", mig.Key())
	}
	return nil
}

// Load reads and parses every migration file under the configured path.
func (m *Migrator) Load() ([]Migration, error) {
	dir := m.path
	if dir == "" {
		dir = fmt.Sprintf("assets/migrations/%s", m.engine)
	}

	entries, err := fs.ReadDir(m.assetsFS, dir)
	if err != nil {
		return nil, err
	}

	var migrations []Migration
	seen := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		content, err := fs.ReadFile(m.assetsFS, path.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("cannot read migration file %s: %w", entry.Name(), err)
		}
		mig, err := Parse(entry.Name(), string(content))
		if err != nil {
			return nil, err
		}
		if other, ok := seen[mig.Datetime]; ok {
			return nil, fmt.Errorf("migrations %s and %s share datetime %s", other, entry.Name(), mig.Datetime)
		}
		seen[mig.Datetime] = entry.Name()
		migrations = append(migrations, mig)
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Datetime < migrations[j].Datetime
	})
	return migrations, nil
}

// Parse splits a migration file into its Up and Down sections.
func Parse(filename, content string) (Migration, error) {
	parts := strings.SplitN(strings.TrimSuffix(filename, ".sql"), "-", 2)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return Migration{}, fmt.Errorf("invalid migration filename: %s", filename)
	}

	mig := Migration{Datetime: parts[0], Name: parts[1]}

	upIdx := strings.Index(content, upMarker)
	if upIdx < 0 {
		return Migration{}, fmt.Errorf("no Up section found in migration %s", filename)
	}
	rest := content[upIdx+len(upMarker):]
	if downIdx := strings.Index(rest, downMarker); downIdx >= 0 {
		mig.Down = strings.TrimSpace(rest[downIdx+len(downMarker):])
		rest = rest[:downIdx]
	}
	mig.Up = strings.TrimSpace(rest)
	if mig.Up == "" {
		return Migration{}, fmt.Errorf("empty Up section in migration %s", filename)
	}
	return mig, nil
}

// Applied returns the keys of migrations already recorded, oldest first.
func (m *Migrator) Applied(ctx context.Context) ([]string, error) {
	rows, err := m.db.QueryContext(ctx, "SELECT datetime, name FROM schema_migrations ORDER BY datetime")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var mig Migration
		if err := rows.Scan(&mig.Datetime, &mig.Name); err != nil {
			return nil, err
		}
		keys = append(keys, mig.Key())
	}
	return keys, rows.Err()
}

func (m *Migrator) ensureTable(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		id TEXT PRIMARY KEY,
		datetime TEXT NOT NULL,
		name TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`)
	return err
}

func (m *Migrator) apply(ctx context.Context, mig Migration) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, mig.Up); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO schema_migrations (id, datetime, name, created_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP)",
		uuid.New().String(), mig.Datetime, mig.Name); err != nil {
		return err
	}

	return tx.Commit()
}
