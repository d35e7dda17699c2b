package database

import (
	"context"
	"fmt"
	"io/fs"
	"regexp"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"voyage-backend/internal/logger"
)

// Migration is one versioned pair of up/down scripts
type Migration struct {
	Version string
	Name    string
	Up      string
	Down    string
}

type MigrationStatus struct {
	Version   string     `json:"version"`
	Name      string     `json:"name"`
	AppliedAt *time.Time `json:"applied_at,omitempty"`
}

// Migrator applies the migrations found in fsys
type Migrator struct {
	pool *pgxpool.Pool
	fsys fs.FS
}

func NewMigrator(pool *pgxpool.Pool, fsys fs.FS) *Migrator {
	return &Migrator{pool: pool, fsys: fsys}
}

var migrationFile = regexp.MustCompile(`^(\d{14})_([a-z0-9_]+)\.(up|down)\.sql$`)

// parseFilename splits 20250101000001_create_users.up.sql into its parts
func parseFilename(name string) (version, label, direction string, ok bool) {
	m := migrationFile.FindStringSubmatch(name)
	if m == nil {
		return "", "", "", false
	}
	return m[1], m[2], m[3], true
}

// ParseMigrations reads every *.sql file at the root of fsys and returns the
// migrations sorted by version. A file that does not follow the naming scheme
// or an up script missing for a version is an error.
func ParseMigrations(fsys fs.FS) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}

	byVersion := map[string]*Migration{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if len(name) < 4 || name[len(name)-4:] != ".sql" {
			continue
		}
		version, label, direction, ok := parseFilename(name)
		if !ok {
			return nil, fmt.Errorf("migration %s: expected <14 digit version>_<name>.(up|down).sql", name)
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", name, err)
		}

		mig, exists := byVersion[version]
		if !exists {
			mig = &Migration{Version: version, Name: label}
			byVersion[version] = mig
		} else if mig.Name != label {
			return nil, fmt.Errorf("migration %s: version %s already used by %s", name, version, mig.Name)
		}
		if direction == "up" {
			mig.Up = string(content)
		} else {
			mig.Down = string(content)
		}
	}

	migrations := make([]Migration, 0, len(byVersion))
	for _, mig := range byVersion {
		if mig.Up == "" {
			return nil, fmt.Errorf("migration %s_%s has no up script", mig.Version, mig.Name)
		}
		migrations = append(migrations, *mig)
	}
	sort.Slice(migrations, func(i, j int) bool { return migrations[i].Version < migrations[j].Version })
	return migrations, nil
}

// pending returns the migrations not yet in applied, in order
func pending(all []Migration, applied map[string]time.Time) []Migration {
	var out []Migration
	for _, mig := range all {
		if _, ok := applied[mig.Version]; !ok {
			out = append(out, mig)
		}
	}
	return out
}

// lastApplied returns up to n applied migrations, newest first
func lastApplied(all []Migration, applied map[string]time.Time, n int) []Migration {
	var out []Migration
	for i := len(all) - 1; i >= 0 && len(out) < n; i-- {
		if _, ok := applied[all[i].Version]; ok {
			out = append(out, all[i])
		}
	}
	return out
}

// Up applies every pending migration, each in its own transaction, and
// returns how many ran.
func (m *Migrator) Up(ctx context.Context) (int, error) {
	all, applied, err := m.load(ctx)
	if err != nil {
		return 0, err
	}

	log := logger.Component("migrations")
	ran := 0
	for _, mig := range pending(all, applied) {
		log.Info().Str("version", mig.Version).Str("name", mig.Name).Msg("applying migration")
		if err := m.apply(ctx, mig.Up, func(tx pgx.Tx) error {
			_, err := tx.Exec(ctx,
				`INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`, mig.Version, mig.Name)
			return err
		}); err != nil {
			return ran, fmt.Errorf("migration %s_%s: %w", mig.Version, mig.Name, err)
		}
		ran++
	}

	if ran == 0 {
		log.Info().Msg("database is up to date")
	} else {
		log.Info().Int("applied", ran).Msg("migrations applied")
	}
	return ran, nil
}

// Down reverts the n most recently applied migrations.
func (m *Migrator) Down(ctx context.Context, n int) (int, error) {
	if n <= 0 {
		return 0, nil
	}
	all, applied, err := m.load(ctx)
	if err != nil {
		return 0, err
	}

	log := logger.Component("migrations")
	reverted := 0
	for _, mig := range lastApplied(all, applied, n) {
		if mig.Down == "" {
			return reverted, fmt.Errorf("migration %s_%s has no down script", mig.Version, mig.Name)
		}
		log.Info().Str("version", mig.Version).Str("name", mig.Name).Msg("reverting migration")
		if err := m.apply(ctx, mig.Down, func(tx pgx.Tx) error {
			_, err := tx.Exec(ctx, `DELETE FROM schema_migrations WHERE version = $1`, mig.Version)
			return err
		}); err != nil {
			return reverted, fmt.Errorf("revert %s_%s: %w", mig.Version, mig.Name, err)
		}
		reverted++
	}
	return reverted, nil
}

// Status lists every known migration with its applied time, if any
func (m *Migrator) Status(ctx context.Context) ([]MigrationStatus, error) {
	all, applied, err := m.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]MigrationStatus, 0, len(all))
	for _, mig := range all {
		s := MigrationStatus{Version: mig.Version, Name: mig.Name}
		if at, ok := applied[mig.Version]; ok {
			s.AppliedAt = &at
		}
		out = append(out, s)
	}
	return out, nil
}

func (m *Migrator) load(ctx context.Context) ([]Migration, map[string]time.Time, error) {
	all, err := ParseMigrations(m.fsys)
	if err != nil {
		return nil, nil, err
	}
	if err := m.createMigrationsTable(ctx); err != nil {
		return nil, nil, fmt.Errorf("create schema_migrations: %w", err)
	}
	applied, err := m.getAppliedMigrations(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("read schema_migrations: %w", err)
	}
	return all, applied, nil
}

// apply runs script and the bookkeeping statement in one transaction
func (m *Migrator) apply(ctx context.Context, script string, record func(tx pgx.Tx) error) error {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, script); err != nil {
		return err
	}
	if err := record(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (m *Migrator) createMigrationsTable(ctx context.Context) error {
	_, err := m.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version VARCHAR(14) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`)
	return err
}

func (m *Migrator) getAppliedMigrations(ctx context.Context) (map[string]time.Time, error) {
	applied := make(map[string]time.Time)

	rows, err := m.pool.Query(ctx, `SELECT version, applied_at FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var version string
		var at time.Time
		if err := rows.Scan(&version, &at); err != nil {
			return nil, err
		}
		applied[version] = at
	}
	return applied, rows.Err()
}
