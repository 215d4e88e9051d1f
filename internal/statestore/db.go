// Package statestore implements the side-band State Store (§3, §6): Sync
// Log, Sync State, Local-Change flags, and the Repository Manifest, all
// local, crash-safe, and never versioned or transferred by VS push/pull.
package statestore

import (
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/sevigo/docsync/internal/config"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store wraps the sqlx connection to the local side-band database, retargeted
// from the teacher's Postgres-backed db.DB to SQLite since the State Store
// must live outside the VS and require no external service (§6).
type Store struct {
	*sqlx.DB
}

// Open opens (creating and migrating if necessary) the side-band database at
// cfg.Path.
func Open(cfg config.StateStoreConfig) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("statestore: create data dir: %w", err)
	}

	conn, err := sqlx.Connect("sqlite3", cfg.Path+"?_journal=WAL&_fk=true")
	if err != nil {
		return nil, fmt.Errorf("statestore: open sqlite: %w", err)
	}

	db := &Store{DB: conn}
	slog.Info("running state store migrations")
	if err := db.runMigrations(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("statestore: run migrations: %w", err)
	}
	return db, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	return s.DB.Close()
}

// runMigrations executes pending migrations embedded in the binary, the
// same dirty-state handling as the teacher's db.RunMigrations, retargeted
// from the postgres driver to sqlite3.
func (s *Store) runMigrations() error {
	migrator, err := s.newMigrator()
	if err != nil {
		return err
	}

	_, dirty, err := migrator.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to get migration version: %w", err)
	}
	if dirty {
		return fmt.Errorf("state store database is in a dirty migration state; manual intervention required")
	}

	if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

func (s *Store) newMigrator() (*migrate.Migrate, error) {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to create migration source: %w", err)
	}

	dbDriver, err := sqlite3.WithInstance(s.DB.DB, &sqlite3.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create database driver: %w", err)
	}

	return migrate.NewWithInstance("iofs", sourceDriver, "sqlite3", dbDriver)
}
