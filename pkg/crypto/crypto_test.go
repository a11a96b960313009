package crypto

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

// cheap keeps the tests fast; the encoded string carries the params.
var cheap = Params{Time: 1, Memory: 1024, Threads: 1, KeyLen: 16}

func TestEncodeVerifyPassword(t *testing.T) {
	encoded, err := EncodePasswordWithParams("secret", cheap)
	if err != nil {
		t.Fatalf("EncodePasswordWithParams: unexpected error: %v", err)
	}
	if !strings.HasPrefix(encoded, "$argon2id$v=19$m=1024,t=1,p=1$") {
		t.Fatalf("EncodePasswordWithParams: unexpected format %q", encoded)
	}

	ok, err := VerifyPassword(encoded, "secret")
	if err != nil {
		t.Fatalf("VerifyPassword: unexpected error: %v", err)
	}
	if !ok {
		t.Errorf("VerifyPassword: expected match for correct password")
	}

	ok, err = VerifyPassword(encoded, "Secret")
	if err != nil {
		t.Fatalf("VerifyPassword: unexpected error: %v", err)
	}
	if ok {
		t.Errorf("VerifyPassword: expected mismatch for wrong password")
	}
}

func TestEncodePasswordUsesFreshSalt(t *testing.T) {
	a, err := EncodePasswordWithParams("secret", cheap)
	if err != nil {
		t.Fatalf("EncodePasswordWithParams: unexpected error: %v", err)
	}
	b, err := EncodePasswordWithParams("secret", cheap)
	if err != nil {
		t.Fatalf("EncodePasswordWithParams: unexpected error: %v", err)
	}
	if a == b {
		t.Errorf("expected different encodings for the same password, got %q twice", a)
	}
}

func TestVerifyPasswordMalformed(t *testing.T) {
	tests := []struct {
		name    string
		encoded string
		wantErr error
	}{
		{"empty", "", ErrMalformedHash},
		{"plain text", "secret", ErrMalformedHash},
		{"wrong algorithm", "$argon2i$v=19$m=1024,t=1,p=1$c2FsdA$a2V5", ErrMalformedHash},
		{"bad params", "$argon2id$v=19$m=x,t=1,p=1$c2FsdA$a2V5", ErrMalformedHash},
		{"zero time", "$argon2id$v=19$m=1024,t=0,p=1$c2FsdA$a2V5", ErrMalformedHash},
		{"bad salt", "$argon2id$v=19$m=1024,t=1,p=1$!!!$a2V5", ErrMalformedHash},
		{"empty key", "$argon2id$v=19$m=1024,t=1,p=1$c2FsdA$", ErrMalformedHash},
		{"old version", "$argon2id$v=16$m=1024,t=1,p=1$c2FsdA$a2V5", ErrIncompatibleVersion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := VerifyPassword(tt.encoded, "secret")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("VerifyPassword(%q) error = %v, want %v", tt.encoded, err, tt.wantErr)
			}
		})
	}
}

func TestHashPasswordDeterministic(t *testing.T) {
	salt := bytes.Repeat([]byte{7}, saltLength)
	a := HashPassword("secret", salt, cheap)
	b := HashPassword("secret", salt, cheap)
	if !bytes.Equal(a, b) {
		t.Errorf("HashPassword: expected identical keys for identical input")
	}
	if len(a) != int(cheap.KeyLen) {
		t.Errorf("HashPassword: key length = %d, want %d", len(a), cheap.KeyLen)
	}
}
