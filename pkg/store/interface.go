// Package store provides the identity backends used to authenticate PASS/USER
// registrations.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/clintecker/hector/pkg/model"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrIdentityExists     = errors.New("identity already exists")
)

// Record is one stored identity: a username and its encoded argon2id hash.
type Record struct {
	Username     string    `yaml:"username"`
	PasswordHash string    `yaml:"password"`
	CreatedAt    time.Time `yaml:"-"`
}

// IdentityStore authenticates registrations. Implementations include the
// YAML-backed MemoryStore and the SQLite datastore.
type IdentityStore interface {
	// Authenticate returns the identity for username when password matches
	// its stored hash, or ErrInvalidCredentials.
	Authenticate(ctx context.Context, username, password string) (*model.Identity, error)

	// CreateIdentity hashes password and stores a new identity.
	CreateIdentity(ctx context.Context, username, password string) (*model.Identity, error)

	// Records returns every stored identity ordered by username.
	Records(ctx context.Context) ([]Record, error)

	// Close releases the backend.
	Close() error
}

// Compile-time check: *MemoryStore implements IdentityStore.
var _ IdentityStore = (*MemoryStore)(nil)
