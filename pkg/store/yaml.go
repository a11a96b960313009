package store

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// identitiesFile is the on-disk layout of the identities file:
//
//	identities:
//	  - username: sam
//	    password: $argon2id$v=19$m=65536,t=1,p=4$...
type identitiesFile struct {
	Identities []Record `yaml:"identities"`
}

// DecodeYAML parses an identities document.
func DecodeYAML(data []byte) ([]Record, error) {
	var f identitiesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("store: parse identities: %w", err)
	}
	return f.Identities, nil
}

// MarshalRecords renders records as an identities document.
func MarshalRecords(records []Record) ([]byte, error) {
	data, err := yaml.Marshal(identitiesFile{Identities: records})
	if err != nil {
		return nil, fmt.Errorf("store: marshal identities: %w", err)
	}
	return data, nil
}

// Import adds every record to s. Duplicate usernames keep the last entry.
func (s *MemoryStore) Import(records []Record) error {
	for _, rec := range records {
		if err := s.Put(rec.Username, rec.PasswordHash); err != nil {
			return err
		}
	}
	return nil
}

// LoadYAML reads an identities file into a new MemoryStore.
func LoadYAML(path string) (*MemoryStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("store: read identities: %w", err)
	}
	records, err := DecodeYAML(data)
	if err != nil {
		return nil, err
	}
	s := NewMemory()
	if err := s.Import(records); err != nil {
		return nil, err
	}
	return s, nil
}

// SaveYAML writes records to path, replacing the file.
func SaveYAML(path string, records []Record) error {
	data, err := MarshalRecords(records)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("store: write identities: %w", err)
	}
	return nil
}
