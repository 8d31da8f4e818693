// Package migration applies the invoice schema with golang-migrate. The SQL
// files are embedded so the server and the CLI carry the same schema.
package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

//go:embed sql/*.sql
var embedded embed.FS

// Migrator owns a migrate instance and the connection it runs on
type Migrator struct {
	migrate *migrate.Migrate
	source  string
	logger  *zap.Logger
}

// Source opens the migration source. An empty dir selects the migrations
// compiled into the binary; otherwise dir is read from disk.
func Source(dir string) (source.Driver, error) {
	fsys, path := fs.FS(embedded), "sql"
	if dir != "" {
		fsys, path = os.DirFS(dir), "."
	}

	src, err := iofs.New(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open migration source: %w", err)
	}
	return src, nil
}

// SourceName describes dir for logs
func SourceName(dir string) string {
	if dir == "" {
		return "embedded"
	}
	return dir
}

// Open connects to PostgreSQL on a dedicated pool that Close releases
func Open(dsn, dir string, logger *zap.Logger) (*Migrator, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	m, err := New(db, dir, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return m, nil
}

// New creates a Migrator on an open PostgreSQL connection. Close closes db.
func New(db *sql.DB, dir string, logger *zap.Logger) (*Migrator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres driver: %w", err)
	}

	src, err := Source(dir)
	if err != nil {
		return nil, err
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}

	return &Migrator{
		migrate: m,
		source:  SourceName(dir),
		logger:  logger.Named("migration"),
	}, nil
}

// Up applies all pending migrations
func (m *Migrator) Up() error {
	return m.apply("up", m.migrate.Up)
}

// Down rolls back every migration
func (m *Migrator) Down() error {
	return m.apply("down", m.migrate.Down)
}

// Steps applies n migrations; a negative n rolls back
func (m *Migrator) Steps(n int) error {
	return m.apply(fmt.Sprintf("steps %d", n), func() error { return m.migrate.Steps(n) })
}

// GoTo migrates up or down to version
func (m *Migrator) GoTo(version uint) error {
	return m.apply(fmt.Sprintf("goto %d", version), func() error { return m.migrate.Migrate(version) })
}

// apply runs op, treats "no change" as success and logs the resulting version
func (m *Migrator) apply(op string, run func() error) error {
	log := m.logger.With(zap.String("op", op), zap.String("source", m.source))
	log.Info("Running migrations")

	if err := run(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info("Schema already current")
			return nil
		}
		return fmt.Errorf("migration %s failed: %w", op, err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	log.Info("Migrations completed", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}

// Version returns the applied version; zero means nothing is applied
func (m *Migrator) Version() (uint, bool, error) {
	version, dirty, err := m.migrate.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get migration version: %w", err)
	}
	return version, dirty, nil
}

// Pending lists source versions above the applied one
func (m *Migrator) Pending(dir string) ([]uint, error) {
	current, _, err := m.Version()
	if err != nil {
		return nil, err
	}
	src, err := Source(dir)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	return versionsAfter(src, current)
}

// versionsAfter walks src in order and returns the versions greater than current
func versionsAfter(src source.Driver, current uint) ([]uint, error) {
	var pending []uint
	version, err := src.First()
	for err == nil {
		if version > current {
			pending = append(pending, version)
		}
		version, err = src.Next(version)
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read migration source: %w", err)
	}
	return pending, nil
}

// Force records version as applied and clears the dirty flag without
// running anything
func (m *Migrator) Force(version int) error {
	m.logger.Warn("Forcing migration version", zap.Int("version", version))
	if err := m.migrate.Force(version); err != nil {
		return fmt.Errorf("failed to force version %d: %w", version, err)
	}
	return nil
}

// Drop removes every object in the database
func (m *Migrator) Drop() error {
	m.logger.Warn("Dropping database objects")
	if err := m.migrate.Drop(); err != nil {
		return fmt.Errorf("failed to drop database: %w", err)
	}
	return nil
}

// Close releases the source and the database connection
func (m *Migrator) Close() error {
	sourceErr, dbErr := m.migrate.Close()
	return errors.Join(sourceErr, dbErr)
}
