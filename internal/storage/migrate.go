package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Step is one schema setup step. Each step has an up script creating its
// objects and a down script dropping them with IF EXISTS, so both directions
// can be rerun.
type Step struct {
	Version uint
	Name    string
}

// SetupSteps lists the embedded setup steps in apply order: base tables
// first, then the views that read them.
func SetupSteps() ([]Step, error) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}
	var steps []Step
	for _, e := range entries {
		name, ok := strings.CutSuffix(e.Name(), ".up.sql")
		if !ok {
			continue
		}
		num, label, ok := strings.Cut(name, "_")
		if !ok {
			return nil, fmt.Errorf("migration %q: missing version prefix", e.Name())
		}
		v, err := strconv.ParseUint(num, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("migration %q: %w", e.Name(), err)
		}
		steps = append(steps, Step{Version: uint(v), Name: label})
	}
	sort.Slice(steps, func(i, j int) bool { return steps[i].Version < steps[j].Version })
	return steps, nil
}

type migrateLogger struct{ logger *slog.Logger }

func (l migrateLogger) Printf(format string, v ...any) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "migrate")
}

func (l migrateLogger) Verbose() bool { return false }

// newMigrate opens a dedicated connection: closing a migrate instance closes
// its database handle.
func newMigrate(dsn string) (*migrate.Migrate, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open migration database: %w", err)
	}

	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create sqlite driver: %w", err)
	}

	d, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", d, "sqlite", driver)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create migrate instance: %w", err)
	}
	m.Log = migrateLogger{logger: slog.Default()}
	return m, nil
}

// RunMigrations applies every pending setup step.
func RunMigrations(dsn string) error {
	m, err := newMigrate(dsn)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// ResetSchema drops every view and table, dependents first, and recreates
// them empty. A step left dirty by an earlier failure is forced clean and
// rolled back with the rest.
func ResetSchema(dsn string) error {
	m, err := newMigrate(dsn)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := down(m); err != nil {
		return fmt.Errorf("drop schema: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func down(m *migrate.Migrate) error {
	err := m.Down()
	var dirty migrate.ErrDirty
	if errors.As(err, &dirty) {
		slog.Warn("Schema left dirty, forcing version before reset", "version", dirty.Version)
		if ferr := m.Force(dirty.Version); ferr != nil {
			return fmt.Errorf("force version %d: %w", dirty.Version, ferr)
		}
		err = m.Down()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// SchemaVersion reports the last applied step. ok is false on a store that
// was never initialized.
func SchemaVersion(dsn string) (version uint, dirty bool, ok bool, err error) {
	m, err := newMigrate(dsn)
	if err != nil {
		return 0, false, false, err
	}
	defer m.Close()

	version, dirty, err = m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, false, nil
	}
	if err != nil {
		return 0, false, false, fmt.Errorf("read schema version: %w", err)
	}
	return version, dirty, true, nil
}
