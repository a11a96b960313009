package datastore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/clintecker/hector/pkg/crypto"
	"github.com/clintecker/hector/pkg/model"
	"github.com/clintecker/hector/pkg/store"
)

// CreateIdentity hashes password and inserts a new identity.
func (s *Store) CreateIdentity(ctx context.Context, username, password string) (*model.Identity, error) {
	_, err := model.NewIdentity(username)
	if err != nil {
		return nil, fmt.Errorf("datastore: create identity: %w", err)
	}
	encoded, err := crypto.EncodePasswordWithParams(password, s.params)
	if err != nil {
		return nil, fmt.Errorf("datastore: create identity: %w", err)
	}
	if err := s.Put(ctx, username, encoded); err != nil {
		return nil, err
	}
	return s.identity(ctx, username)
}

// Put inserts an identity with an already encoded password hash.
func (s *Store) Put(ctx context.Context, username, encodedHash string) error {
	if err := model.ValidateUsername(username); err != nil {
		return fmt.Errorf("datastore: put %q: %w", username, err)
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO identities (username, password_hash, created_at) VALUES (?, ?, ?)",
		username, encodedHash, formatDBTime(time.Now()),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("datastore: put %q: %w", username, store.ErrIdentityExists)
		}
		return fmt.Errorf("datastore: put %q: %w", username, err)
	}
	return nil
}

// Import inserts every record, stopping at the first failure.
func (s *Store) Import(ctx context.Context, records []store.Record) error {
	for _, rec := range records {
		if err := s.Put(ctx, rec.Username, rec.PasswordHash); err != nil {
			return err
		}
	}
	return nil
}

// Authenticate verifies password and stamps the login time.
func (s *Store) Authenticate(ctx context.Context, username, password string) (*model.Identity, error) {
	var encoded, createdAt string
	err := s.db.QueryRowContext(ctx,
		"SELECT password_hash, created_at FROM identities WHERE username = ?", username,
	).Scan(&encoded, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("datastore: authenticate %q: %w", username, err)
	}

	match, err := crypto.VerifyPassword(encoded, password)
	if err != nil {
		return nil, fmt.Errorf("datastore: authenticate %q: %w", username, err)
	}
	if !match {
		return nil, store.ErrInvalidCredentials
	}

	if _, err := s.db.ExecContext(ctx,
		"UPDATE identities SET last_login_at = ? WHERE username = ?", formatDBTime(time.Now()), username,
	); err != nil {
		return nil, fmt.Errorf("datastore: stamp login %q: %w", username, err)
	}

	created, err := parseDBTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("datastore: parse created_at: %w", err)
	}
	return &model.Identity{Username: username, CreatedAt: created}, nil
}

// LastLogin returns the time of the last successful Authenticate, or the
// zero time if the identity never logged in.
func (s *Store) LastLogin(ctx context.Context, username string) (time.Time, error) {
	var last sql.NullString
	err := s.db.QueryRowContext(ctx,
		"SELECT last_login_at FROM identities WHERE username = ?", username,
	).Scan(&last)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, store.ErrInvalidCredentials
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("datastore: last login %q: %w", username, err)
	}
	if !last.Valid || last.String == "" {
		return time.Time{}, nil
	}
	return parseDBTime(last.String)
}

// Records returns every identity ordered by username.
func (s *Store) Records(ctx context.Context) ([]store.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT username, password_hash, created_at FROM identities ORDER BY username",
	)
	if err != nil {
		return nil, fmt.Errorf("datastore: list identities: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []store.Record
	for rows.Next() {
		var rec store.Record
		var createdAt string
		if err := rows.Scan(&rec.Username, &rec.PasswordHash, &createdAt); err != nil {
			return nil, fmt.Errorf("datastore: scan identity: %w", err)
		}
		if rec.CreatedAt, err = parseDBTime(createdAt); err != nil {
			return nil, fmt.Errorf("datastore: parse created_at: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("datastore: list identities: %w", err)
	}
	return records, nil
}

func (s *Store) identity(ctx context.Context, username string) (*model.Identity, error) {
	var createdAt string
	if err := s.db.QueryRowContext(ctx,
		"SELECT created_at FROM identities WHERE username = ?", username,
	).Scan(&createdAt); err != nil {
		return nil, fmt.Errorf("datastore: get identity %q: %w", username, err)
	}
	created, err := parseDBTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("datastore: parse created_at: %w", err)
	}
	return &model.Identity{Username: username, CreatedAt: created}, nil
}
