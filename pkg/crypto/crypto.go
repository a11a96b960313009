// Package crypto hashes and verifies identity passwords.
//
// Hashes are stored in the PHC string format produced by most argon2
// tooling, so identities files can be edited by hand:
//
//	$argon2id$v=19$m=65536,t=1,p=4$<salt>$<key>
package crypto

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/argon2"
)

var (
	ErrMalformedHash       = errors.New("crypto: malformed password hash")
	ErrIncompatibleVersion = errors.New("crypto: incompatible argon2 version")
)

const saltLength = 16

// Params are the argon2id cost parameters.
type Params struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
	KeyLen  uint32
}

// DefaultParams follows the RFC 9106 second recommended option.
var DefaultParams = Params{Time: 1, Memory: 64 * 1024, Threads: 4, KeyLen: 32}

// GenerateSalt returns a random 16-byte salt.
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, saltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("crypto: generate salt: %w", err)
	}
	return salt, nil
}

// HashPassword derives an Argon2id key from password and salt.
func HashPassword(password string, salt []byte, p Params) []byte {
	return argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Threads, p.KeyLen)
}

// EncodePassword hashes password with DefaultParams and a fresh salt.
func EncodePassword(password string) (string, error) {
	return EncodePasswordWithParams(password, DefaultParams)
}

// EncodePasswordWithParams hashes password with p and a fresh salt.
func EncodePasswordWithParams(password string, p Params) (string, error) {
	salt, err := GenerateSalt()
	if err != nil {
		return "", err
	}
	key := HashPassword(password, salt, p)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.Memory, p.Time, p.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// VerifyPassword reports whether password matches an encoded hash.
// A malformed hash is an error, a wrong password is not.
func VerifyPassword(encoded, password string) (bool, error) {
	p, salt, key, err := decode(encoded)
	if err != nil {
		return false, err
	}
	other := HashPassword(password, salt, p)
	return subtle.ConstantTimeCompare(key, other) == 1, nil
}

func decode(encoded string) (Params, []byte, []byte, error) {
	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, key
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return Params{}, nil, nil, ErrMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return Params{}, nil, nil, ErrMalformedHash
	}
	if version != argon2.Version {
		return Params{}, nil, nil, ErrIncompatibleVersion
	}

	var p Params
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Time, &p.Threads); err != nil {
		return Params{}, nil, nil, ErrMalformedHash
	}
	if p.Time == 0 || p.Threads == 0 {
		return Params{}, nil, nil, ErrMalformedHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return Params{}, nil, nil, ErrMalformedHash
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return Params{}, nil, nil, ErrMalformedHash
	}
	p.KeyLen = uint32(len(key)) //nolint:gosec // key length bounded by the decoded string
	return p, salt, key, nil
}
