// Package datastore provides the SQLite identity backend.
package datastore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/clintecker/hector/pkg/crypto"
	"github.com/clintecker/hector/pkg/store"
)

const dbTimeLayout = "2006-01-02 15:04:05"

// Compile-time check: *Store implements store.IdentityStore.
var _ store.IdentityStore = (*Store)(nil)

// Store keeps identities in a SQLite database.
type Store struct {
	db     *sql.DB
	params crypto.Params
}

// New opens (or creates) a SQLite database and runs migrations.
func New(dbPath string) (*Store, error) {
	return NewWithParams(dbPath, crypto.DefaultParams)
}

// NewWithParams is New with custom argon2 params for CreateIdentity.
func NewWithParams(dbPath string, params crypto.Params) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("datastore: open db: %w", err)
	}

	ctx := context.Background()
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("datastore: %s: %w", pragma, err)
		}
	}

	s := &Store{db: db, params: params}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("datastore: migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	migrations := []struct {
		version    int
		statements []string
	}{
		{
			version: 1,
			statements: []string{`
			CREATE TABLE IF NOT EXISTS identities (
				id            INTEGER PRIMARY KEY AUTOINCREMENT,
				username      TEXT    NOT NULL UNIQUE CHECK(length(username) > 0 AND length(username) <= 32),
				password_hash TEXT    NOT NULL,
				created_at    TEXT    NOT NULL DEFAULT (datetime('now'))
			)`},
		},
		{
			version: 2,
			statements: []string{
				"ALTER TABLE identities ADD COLUMN last_login_at TEXT",
			},
		},
	}

	if err := s.ensureSchemaMigrations(ctx); err != nil {
		return err
	}
	current, err := s.schemaVersion(ctx)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		for _, stmt := range m.statements {
			if _, err := s.db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("datastore: migration %d: %w", m.version, err)
			}
		}
		if _, err := s.db.ExecContext(ctx, "UPDATE schema_migrations SET version = ?", m.version); err != nil {
			return fmt.Errorf("datastore: update schema version: %w", err)
		}
	}
	return nil
}

func (s *Store) ensureSchemaMigrations(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER NOT NULL)"); err != nil {
		return fmt.Errorf("datastore: create schema_migrations: %w", err)
	}
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
		return fmt.Errorf("datastore: check schema_migrations: %w", err)
	}
	if count == 0 {
		if _, err := s.db.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES (0)"); err != nil {
			return fmt.Errorf("datastore: init schema_migrations: %w", err)
		}
	}
	return nil
}

// SchemaVersion returns the applied migration version.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	return s.schemaVersion(ctx)
}

func (s *Store) schemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_migrations LIMIT 1").Scan(&version); err != nil {
		return 0, fmt.Errorf("datastore: read schema version: %w", err)
	}
	return version, nil
}

func formatDBTime(t time.Time) string {
	return t.UTC().Format(dbTimeLayout)
}

func parseDBTime(value string) (time.Time, error) {
	return time.ParseInLocation(dbTimeLayout, value, time.UTC)
}
