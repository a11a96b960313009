// Package model defines the core domain types for hector.
package model

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf8"
)

const (
	MaxUsernameLength = 32
	MaxRealnameLength = 64
)

var ErrUsernameEmpty = errors.New("username must not be empty")
var ErrUsernameTooLong = fmt.Errorf("username must not exceed %d characters", MaxUsernameLength)
var ErrUsernameInvalidChars = errors.New("username must contain only alphanumeric characters, underscores, dots, or hyphens")
var ErrRealnameTooLong = fmt.Errorf("realname must not exceed %d characters", MaxRealnameLength)

// Identity is an authenticated account. The username is what appears after
// the "!" in a session's source.
type Identity struct {
	Username  string    `json:"username" yaml:"username"`
	CreatedAt time.Time `json:"created_at" yaml:"-"`
}

// NewIdentity returns an identity for a validated username.
func NewIdentity(username string) (*Identity, error) {
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	return &Identity{Username: username, CreatedAt: time.Now().UTC()}, nil
}

// ValidateUsername checks that a username is 1-32 ASCII alphanumeric,
// underscore, dot or hyphen characters. Returns nil on success or a
// descriptive error.
func ValidateUsername(name string) error {
	if len(name) == 0 {
		return ErrUsernameEmpty
	}
	if len(name) > MaxUsernameLength {
		return ErrUsernameTooLong
	}
	for _, r := range name {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9') && r != '_' && r != '-' && r != '.' {
			return ErrUsernameInvalidChars
		}
	}
	return nil
}

// ValidateRealname bounds the free-form display name sent with USER.
func ValidateRealname(realname string) error {
	if utf8.RuneCountInString(realname) > MaxRealnameLength {
		return ErrRealnameTooLong
	}
	return nil
}
