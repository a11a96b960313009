package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/clintecker/hector/pkg/crypto"
	"github.com/clintecker/hector/pkg/model"
)

// MemoryStore keeps identities in memory. It backs the YAML identities file
// and the tests.
type MemoryStore struct {
	mu sync.RWMutex

	now    func() time.Time
	params crypto.Params

	records map[string]Record // username -> record
}

// NewMemory creates an empty MemoryStore hashing with crypto.DefaultParams.
func NewMemory() *MemoryStore {
	return NewMemoryWithParams(crypto.DefaultParams)
}

// NewMemoryWithParams creates an empty MemoryStore with custom argon2 params.
func NewMemoryWithParams(params crypto.Params) *MemoryStore {
	return &MemoryStore{
		now:     func() time.Time { return time.Now().UTC() },
		params:  params,
		records: make(map[string]Record),
	}
}

// Close is a no-op for MemoryStore.
func (s *MemoryStore) Close() error {
	return nil
}

// Put stores an already encoded password hash, replacing any previous entry.
func (s *MemoryStore) Put(username, encodedHash string) error {
	if err := model.ValidateUsername(username); err != nil {
		return fmt.Errorf("store: put %q: %w", username, err)
	}
	if encodedHash == "" {
		return fmt.Errorf("store: put %q: %w", username, crypto.ErrMalformedHash)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[username] = Record{Username: username, PasswordHash: encodedHash, CreatedAt: s.now()}
	return nil
}

// CreateIdentity hashes password and stores a new identity.
func (s *MemoryStore) CreateIdentity(_ context.Context, username, password string) (*model.Identity, error) {
	id, err := model.NewIdentity(username)
	if err != nil {
		return nil, fmt.Errorf("store: create identity: %w", err)
	}
	encoded, err := crypto.EncodePasswordWithParams(password, s.params)
	if err != nil {
		return nil, fmt.Errorf("store: create identity: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[username]; exists {
		return nil, fmt.Errorf("store: create identity %q: %w", username, ErrIdentityExists)
	}
	id.CreatedAt = s.now()
	s.records[username] = Record{Username: username, PasswordHash: encoded, CreatedAt: id.CreatedAt}
	return id, nil
}

// Authenticate verifies password against the stored hash for username.
func (s *MemoryStore) Authenticate(_ context.Context, username, password string) (*model.Identity, error) {
	s.mu.RLock()
	rec, ok := s.records[username]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrInvalidCredentials
	}

	match, err := crypto.VerifyPassword(rec.PasswordHash, password)
	if err != nil {
		return nil, fmt.Errorf("store: authenticate %q: %w", username, err)
	}
	if !match {
		return nil, ErrInvalidCredentials
	}
	return &model.Identity{Username: rec.Username, CreatedAt: rec.CreatedAt}, nil
}

// Records returns every identity ordered by username.
func (s *MemoryStore) Records(context.Context) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}
